package library

import (
	"testing"
	"time"
)

func TestEligibleToReview(t *testing.T) {
	tests := []struct {
		name   string
		loans  []Loan
		bookID int
		want   bool
	}{
		{
			name:   "no loans",
			loans:  nil,
			bookID: 42,
			want:   false,
		},
		{
			name:   "borrowed but not returned",
			loans:  []Loan{{ID: 1, BookID: 42, Status: LoanBorrowed}},
			bookID: 42,
			want:   false,
		},
		{
			name:   "returned",
			loans:  []Loan{{ID: 1, BookID: 42, Status: LoanReturned}},
			bookID: 42,
			want:   true,
		},
		{
			name: "returned a different book",
			loans: []Loan{
				{ID: 1, BookID: 7, Status: LoanReturned},
				{ID: 2, BookID: 42, Status: LoanBorrowed},
			},
			bookID: 42,
			want:   false,
		},
		{
			name: "one of several loans returned",
			loans: []Loan{
				{ID: 1, BookID: 42, Status: LoanBorrowed},
				{ID: 2, BookID: 42, Status: LoanReturned},
			},
			bookID: 42,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EligibleToReview(tt.loans, tt.bookID); got != tt.want {
				t.Errorf("EligibleToReview() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEligibility_FlipsWhenLoanReturns(t *testing.T) {
	loans := []Loan{{ID: 1, BookID: 42, Status: LoanBorrowed}}
	if EligibleToReview(loans, 42) {
		t.Fatal("not eligible while the loan is outstanding")
	}

	loans[0].Status = LoanReturned
	if !EligibleToReview(loans, 42) {
		t.Fatal("eligibility must flip once the loan is returned")
	}
}

func TestCartItemFor(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ID: 1, BookID: 42},
		{ID: 2, BookID: 99},
	}}

	item, ok := CartItemFor(cart, 42)
	if !ok {
		t.Fatal("CartItemFor() ok = false, want true")
	}
	if item.ID != 1 {
		t.Errorf("item.ID = %d, want 1", item.ID)
	}

	if _, ok := CartItemFor(cart, 7); ok {
		t.Error("CartItemFor() ok = true for absent book, want false")
	}
}

func TestKeys_DistinctParamsDistinctKeys(t *testing.T) {
	k1 := BooksKey(ListParams{Page: 1})
	k2 := BooksKey(ListParams{Page: 2})
	k3 := BooksKey(ListParams{Page: 1})

	if k1.Equal(k2) {
		t.Errorf("pages 1 and 2 share key %s", k1.ID())
	}
	if !k1.Equal(k3) {
		t.Errorf("identical params yield different keys: %s vs %s", k1.ID(), k3.ID())
	}
}

func TestKeys_ZeroParamsCanonicalize(t *testing.T) {
	// Zero-valued params are omitted entirely, so the zero ListParams
	// collapses to the bare family.
	k := BooksKey(ListParams{})
	if k.ID() != FamilyBooks {
		t.Errorf("ID() = %q, want %q", k.ID(), FamilyBooks)
	}
}

func TestKeys_FamilySeparation(t *testing.T) {
	keys := map[string]string{
		BooksKey(ListParams{}).Family:            FamilyBooks,
		BookKey(1).Family:                        FamilyBook,
		RecommendedBooksKey("rating", ListParams{}).Family: FamilyBooksRecommended,
		CategoriesKey().Family:                   FamilyCategories,
		AuthorsKey("").Family:                    FamilyAuthors,
		MyLoansKey(ListParams{}).Family:          FamilyLoansMine,
		AdminLoansKey(ListParams{}).Family:       FamilyLoansAdmin,
		OverdueLoansKey().Family:                 FamilyLoansOverdue,
		BookReviewsKey(1, ListParams{}).Family:   FamilyReviewsBook,
		MyReviewsKey(ListParams{}).Family:        FamilyReviewsMine,
		ProfileKey().Family:                      FamilyProfile,
		CartKey().Family:                         FamilyCart,
		AdminBooksKey(ListParams{}).Family:       FamilyAdminBooks,
		AdminUsersKey(ListParams{}).Family:       FamilyAdminUsers,
	}
	for got, want := range keys {
		if got != want {
			t.Errorf("family = %q, want %q", got, want)
		}
	}
}

func TestStaleDefaults_CoverEveryFamily(t *testing.T) {
	defaults := StaleDefaults()

	families := []string{
		FamilyBooks, FamilyBook, FamilyBooksRecommended, FamilyCategories,
		FamilyAuthors, FamilyLoansMine, FamilyLoansAdmin, FamilyLoansOverdue,
		FamilyReviewsBook, FamilyReviewsMine, FamilyProfile, FamilyCart,
		FamilyAdminBooks, FamilyAdminUsers,
	}
	for _, f := range families {
		if defaults[f] <= 0 {
			t.Errorf("StaleDefaults()[%q] = %v, want positive window", f, defaults[f])
		}
	}

	// Catalog data moves slower than loan and cart state.
	if defaults[FamilyCategories] <= defaults[FamilyCart] {
		t.Errorf("categories window %v should exceed cart window %v",
			defaults[FamilyCategories], defaults[FamilyCart])
	}
}

func TestStaleDefaults_ReturnsFreshMap(t *testing.T) {
	a := StaleDefaults()
	a[FamilyBooks] = time.Nanosecond

	if StaleDefaults()[FamilyBooks] == time.Nanosecond {
		t.Error("StaleDefaults() must return a copy, not shared state")
	}
}
