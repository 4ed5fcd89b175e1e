package mutate

import "github.com/bookyhq/booksync/library"

// Kind names a mutation the coordinator knows how to settle.
type Kind string

// Mutation kinds.
const (
	KindBorrowBook     Kind = "borrowBook"
	KindReturnLoan     Kind = "returnLoan"
	KindBorrowFromCart Kind = "borrowFromCart"
	KindAddToCart      Kind = "addToCart"
	KindRemoveFromCart Kind = "removeFromCart"
	KindClearCart      Kind = "clearCart"
	KindCreateReview   Kind = "createReview"
	KindDeleteReview   Kind = "deleteReview"
	KindUpdateProfile  Kind = "updateProfile"
)

// Graph is the static table mapping each mutation kind to the cache
// key families that must be refreshed after it settles successfully.
//
// Centralizing this here, instead of scattering ad-hoc invalidations
// across call sites, is what keeps cross-entity coupling auditable
// and testable in isolation.
type Graph map[Kind][]string

// DefaultGraph returns the invalidation table for the borrowing client.
func DefaultGraph() Graph {
	return Graph{
		KindBorrowBook: {
			library.FamilyBook,
			library.FamilyBooks,
			library.FamilyLoansMine,
			library.FamilyCart,
		},
		KindReturnLoan: {
			library.FamilyLoansMine,
			library.FamilyBooks,
		},
		KindBorrowFromCart: {
			library.FamilyLoansMine,
			library.FamilyBooks,
			library.FamilyCart,
		},
		KindAddToCart:      {library.FamilyCart},
		KindRemoveFromCart: {library.FamilyCart},
		KindClearCart:      {library.FamilyCart},
		KindCreateReview: {
			library.FamilyReviewsBook,
			library.FamilyBook,
		},
		KindDeleteReview: {
			library.FamilyReviewsBook,
			library.FamilyReviewsMine,
		},
		KindUpdateProfile: {library.FamilyProfile},
	}
}

// Families returns the key families invalidated when kind settles.
func (g Graph) Families(kind Kind) []string {
	return g[kind]
}
