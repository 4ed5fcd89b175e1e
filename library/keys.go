package library

import (
	"strconv"
	"time"

	"github.com/bookyhq/booksync/store"
)

// Cache key families. One family per entity query shape; parameterized
// queries (pagination, search, entity IDs) live in the key params.
const (
	FamilyBooks            = "books"
	FamilyBook             = "book"
	FamilyBooksRecommended = "books-recommended"
	FamilyCategories       = "categories"
	FamilyAuthors          = "authors"
	FamilyLoansMine        = "loans-my"
	FamilyLoansAdmin       = "loans-admin"
	FamilyLoansOverdue     = "loans-overdue"
	FamilyReviewsBook      = "reviews-book"
	FamilyReviewsMine      = "reviews-my"
	FamilyProfile          = "profile"
	FamilyCart             = "cart"
	FamilyAdminBooks       = "admin-books"
	FamilyAdminUsers       = "admin-users"
)

// StaleDefaults returns the per-family staleness windows the client
// ships with. Values mirror how often each family realistically
// changes: catalog data is slow, loan and cart state is fast.
func StaleDefaults() map[string]time.Duration {
	return map[string]time.Duration{
		FamilyBooks:            2 * time.Minute,
		FamilyBook:             5 * time.Minute,
		FamilyBooksRecommended: 10 * time.Minute,
		FamilyCategories:       30 * time.Minute,
		FamilyAuthors:          10 * time.Minute,
		FamilyLoansMine:        time.Minute,
		FamilyLoansAdmin:       30 * time.Second,
		FamilyLoansOverdue:     time.Minute,
		FamilyReviewsBook:      2 * time.Minute,
		FamilyReviewsMine:      2 * time.Minute,
		FamilyProfile:          5 * time.Minute,
		FamilyCart:             time.Minute,
		FamilyAdminBooks:       time.Minute,
		FamilyAdminUsers:       time.Minute,
	}
}

// ListParams are the common pagination/search parameters carried in
// list keys.
type ListParams struct {
	Query      string
	CategoryID int
	AuthorID   int
	MinRating  int
	Status     string
	Page       int
	Limit      int
}

func (p ListParams) toMap() map[string]string {
	m := make(map[string]string, 6)
	if p.Query != "" {
		m["q"] = p.Query
	}
	if p.CategoryID > 0 {
		m["categoryId"] = strconv.Itoa(p.CategoryID)
	}
	if p.AuthorID > 0 {
		m["authorId"] = strconv.Itoa(p.AuthorID)
	}
	if p.MinRating > 0 {
		m["minRating"] = strconv.Itoa(p.MinRating)
	}
	if p.Status != "" {
		m["status"] = p.Status
	}
	if p.Page > 0 {
		m["page"] = strconv.Itoa(p.Page)
	}
	if p.Limit > 0 {
		m["limit"] = strconv.Itoa(p.Limit)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// BooksKey addresses one page of the book catalog.
func BooksKey(p ListParams) store.Key {
	return store.NewKey(FamilyBooks, p.toMap())
}

// BookKey addresses one book's detail.
func BookKey(id int) store.Key {
	return store.NewKey(FamilyBook, map[string]string{"id": strconv.Itoa(id)})
}

// RecommendedBooksKey addresses a recommendation list.
// by is "rating" or "popular".
func RecommendedBooksKey(by string, p ListParams) store.Key {
	m := p.toMap()
	if by != "" {
		if m == nil {
			m = make(map[string]string, 1)
		}
		m["by"] = by
	}
	return store.NewKey(FamilyBooksRecommended, m)
}

// CategoriesKey addresses the category list.
func CategoriesKey() store.Key {
	return store.NewKey(FamilyCategories, nil)
}

// AuthorsKey addresses the author list, optionally filtered by search.
func AuthorsKey(q string) store.Key {
	if q == "" {
		return store.NewKey(FamilyAuthors, nil)
	}
	return store.NewKey(FamilyAuthors, map[string]string{"q": q})
}

// MyLoansKey addresses the authenticated user's loan history.
func MyLoansKey(p ListParams) store.Key {
	return store.NewKey(FamilyLoansMine, p.toMap())
}

// AdminLoansKey addresses the admin loan listing.
func AdminLoansKey(p ListParams) store.Key {
	return store.NewKey(FamilyLoansAdmin, p.toMap())
}

// OverdueLoansKey addresses the admin overdue-loans listing.
func OverdueLoansKey() store.Key {
	return store.NewKey(FamilyLoansOverdue, nil)
}

// BookReviewsKey addresses one book's review list.
func BookReviewsKey(bookID int, p ListParams) store.Key {
	m := p.toMap()
	if m == nil {
		m = make(map[string]string, 1)
	}
	m["bookId"] = strconv.Itoa(bookID)
	return store.NewKey(FamilyReviewsBook, m)
}

// MyReviewsKey addresses the authenticated user's reviews.
func MyReviewsKey(p ListParams) store.Key {
	return store.NewKey(FamilyReviewsMine, p.toMap())
}

// AdminBooksKey addresses the admin catalog listing.
func AdminBooksKey(p ListParams) store.Key {
	return store.NewKey(FamilyAdminBooks, p.toMap())
}

// AdminUsersKey addresses the admin user-management listing.
func AdminUsersKey(p ListParams) store.Key {
	return store.NewKey(FamilyAdminUsers, p.toMap())
}

// ProfileKey addresses the authenticated user's profile.
func ProfileKey() store.Key {
	return store.NewKey(FamilyProfile, nil)
}

// CartKey addresses the server-side cart contents.
func CartKey() store.Key {
	return store.NewKey(FamilyCart, nil)
}
