package client

import (
	"context"

	"github.com/bookyhq/booksync/library"
	"github.com/bookyhq/booksync/query"
	"github.com/bookyhq/booksync/remote"
	"github.com/bookyhq/booksync/store"
)

// entryData extracts the typed payload from an entry, falling back to
// the zero value when the entry has never succeeded.
func entryData[T any](e store.Entry) T {
	v, _ := e.Data.(T)
	return v
}

// getFresh awaits a fresh entry and returns its typed data. On fetch
// failure the last successful data is returned alongside the error,
// so callers can keep rendering it.
func getFresh[T any](ctx context.Context, c *Client, key store.Key, fetch query.Fetcher) (T, error) {
	e, err := c.runner.EnsureFresh(ctx, key, fetch)
	return entryData[T](e), err
}

func booksQuery(p library.ListParams, by string) remote.BooksQuery {
	return remote.BooksQuery{
		Query:      p.Query,
		CategoryID: p.CategoryID,
		AuthorID:   p.AuthorID,
		MinRating:  p.MinRating,
		By:         by,
		Page:       p.Page,
		Limit:      p.Limit,
	}
}

func loansQuery(p library.ListParams) remote.LoansQuery {
	return remote.LoansQuery{
		Status: p.Status,
		Search: p.Query,
		Page:   p.Page,
		Limit:  p.Limit,
	}
}

// Books returns one page of the catalog, fetching if stale.
func (c *Client) Books(ctx context.Context, p library.ListParams) (library.BookPage, error) {
	return getFresh[library.BookPage](ctx, c, library.BooksKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetBooks(ctx, booksQuery(p, ""))
	})
}

// BooksHandle returns a watchable handle on a catalog page, for
// consumers that want snapshot/refetch/watch semantics.
func (c *Client) BooksHandle(p library.ListParams) *query.Handle {
	return c.runner.Handle(library.BooksKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetBooks(ctx, booksQuery(p, ""))
	})
}

// Book returns one book's detail.
func (c *Client) Book(ctx context.Context, id int) (library.Book, error) {
	return getFresh[library.Book](ctx, c, library.BookKey(id), func(ctx context.Context) (any, error) {
		return c.source.GetBook(ctx, id)
	})
}

// BookHandle returns a watchable handle on a book's detail.
func (c *Client) BookHandle(id int) *query.Handle {
	return c.runner.Handle(library.BookKey(id), func(ctx context.Context) (any, error) {
		return c.source.GetBook(ctx, id)
	})
}

// RecommendedBooks returns the recommendation list ordered by rating
// or popularity.
func (c *Client) RecommendedBooks(ctx context.Context, by string, p library.ListParams) (library.BookPage, error) {
	return getFresh[library.BookPage](ctx, c, library.RecommendedBooksKey(by, p), func(ctx context.Context) (any, error) {
		return c.source.GetRecommendedBooks(ctx, booksQuery(p, by))
	})
}

// Categories returns all book categories.
func (c *Client) Categories(ctx context.Context) ([]library.Category, error) {
	return getFresh[[]library.Category](ctx, c, library.CategoriesKey(), func(ctx context.Context) (any, error) {
		return c.source.GetCategories(ctx)
	})
}

// Authors returns authors, optionally filtered by search term.
func (c *Client) Authors(ctx context.Context, q string) ([]library.Author, error) {
	return getFresh[[]library.Author](ctx, c, library.AuthorsKey(q), func(ctx context.Context) (any, error) {
		return c.source.GetAuthors(ctx, q)
	})
}

// MyLoans returns the authenticated user's loan history.
func (c *Client) MyLoans(ctx context.Context, p library.ListParams) (library.LoanPage, error) {
	return getFresh[library.LoanPage](ctx, c, library.MyLoansKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetMyLoans(ctx, loansQuery(p))
	})
}

// MyLoansHandle returns a watchable handle on the user's loans.
// Watching it is how a UI reacts to eligibility flips and returns.
func (c *Client) MyLoansHandle(p library.ListParams) *query.Handle {
	return c.runner.Handle(library.MyLoansKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetMyLoans(ctx, loansQuery(p))
	})
}

// AdminLoans returns all loans with pagination and filters (admin).
func (c *Client) AdminLoans(ctx context.Context, p library.ListParams) (library.LoanPage, error) {
	return getFresh[library.LoanPage](ctx, c, library.AdminLoansKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetAdminLoans(ctx, loansQuery(p))
	})
}

// OverdueLoans returns overdue loans (admin).
func (c *Client) OverdueLoans(ctx context.Context) (library.LoanPage, error) {
	return getFresh[library.LoanPage](ctx, c, library.OverdueLoansKey(), func(ctx context.Context) (any, error) {
		return c.source.GetOverdueLoans(ctx)
	})
}

// AdminBooks returns the admin catalog listing, which carries copy
// counts the public catalog omits.
func (c *Client) AdminBooks(ctx context.Context, p library.ListParams) (library.BookPage, error) {
	return getFresh[library.BookPage](ctx, c, library.AdminBooksKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetAdminBooks(ctx, booksQuery(p, ""))
	})
}

// AdminUsers returns the registered-user listing (admin).
func (c *Client) AdminUsers(ctx context.Context, p library.ListParams) (library.UserPage, error) {
	return getFresh[library.UserPage](ctx, c, library.AdminUsersKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetAdminUsers(ctx, remote.UsersQuery{Query: p.Query, Page: p.Page, Limit: p.Limit})
	})
}

// BookReviews returns one book's reviews.
func (c *Client) BookReviews(ctx context.Context, bookID int, p library.ListParams) (library.ReviewPage, error) {
	return getFresh[library.ReviewPage](ctx, c, library.BookReviewsKey(bookID, p), func(ctx context.Context) (any, error) {
		return c.source.GetBookReviews(ctx, bookID, remote.PageQuery{Page: p.Page, Limit: p.Limit})
	})
}

// MyReviews returns the authenticated user's reviews.
func (c *Client) MyReviews(ctx context.Context, p library.ListParams) (library.ReviewPage, error) {
	return getFresh[library.ReviewPage](ctx, c, library.MyReviewsKey(p), func(ctx context.Context) (any, error) {
		return c.source.GetMyReviews(ctx, remote.PageQuery{Page: p.Page, Limit: p.Limit})
	})
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (library.Profile, error) {
	return getFresh[library.Profile](ctx, c, library.ProfileKey(), func(ctx context.Context) (any, error) {
		return c.source.GetProfile(ctx)
	})
}

// Cart returns the server-side cart contents.
func (c *Client) Cart(ctx context.Context) (library.Cart, error) {
	return getFresh[library.Cart](ctx, c, library.CartKey(), func(ctx context.Context) (any, error) {
		return c.source.GetCart(ctx)
	})
}

// CartHandle returns a watchable handle on the cart.
func (c *Client) CartHandle() *query.Handle {
	return c.runner.Handle(library.CartKey(), func(ctx context.Context) (any, error) {
		return c.source.GetCart(ctx)
	})
}

// CanReview reports whether the current user may review the book:
// true iff a returned loan for it exists in the freshest loan
// history. Derived on every call, never cached; loan status can
// change underneath the consumer.
func (c *Client) CanReview(ctx context.Context, bookID int) (bool, error) {
	page, err := c.MyLoans(ctx, library.ListParams{})
	if err != nil {
		return false, err
	}
	return library.EligibleToReview(page.Loans, bookID), nil
}

// Warm prefetches the slow-moving families a freshly mounted UI needs.
func (c *Client) Warm(ctx context.Context) error {
	return c.runner.Prefetch(ctx,
		query.PrefetchPair{Key: library.CategoriesKey(), Fetch: func(ctx context.Context) (any, error) {
			return c.source.GetCategories(ctx)
		}},
		query.PrefetchPair{Key: library.BooksKey(library.ListParams{}), Fetch: func(ctx context.Context) (any, error) {
			return c.source.GetBooks(ctx, remote.BooksQuery{})
		}},
		query.PrefetchPair{Key: library.CartKey(), Fetch: func(ctx context.Context) (any, error) {
			return c.source.GetCart(ctx)
		}},
	)
}
