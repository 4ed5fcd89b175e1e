package client

import (
	"context"
	"errors"
	"strconv"

	"github.com/bookyhq/booksync/library"
	"github.com/bookyhq/booksync/mutate"
	"github.com/bookyhq/booksync/remote"
)

// BorrowBook borrows a book directly, with optimistic UI feedback:
// the cached book detail and every cached catalog page show one fewer
// available copy before the network call resolves. A failed commit
// restores both exactly.
func (c *Client) BorrowBook(ctx context.Context, bookID int) (library.Loan, error) {
	result, err := c.coord.Do(ctx, mutate.Request{
		Kind:    mutate.KindBorrowBook,
		Fence:   c.fence("book:" + strconv.Itoa(bookID)),
		Patches: c.borrowPatches(bookID),
		Commit: func(ctx context.Context) (any, error) {
			return c.source.BorrowBook(ctx, bookID)
		},
	})
	if err != nil {
		return library.Loan{}, err
	}
	return result.(library.Loan), nil
}

// borrowPatches builds the speculative available-copies decrements
// for a borrow: the book's detail entry plus every cached catalog
// page that lists it.
func (c *Client) borrowPatches(bookID int) []mutate.Patch {
	patches := []mutate.Patch{{
		Key: library.BookKey(bookID),
		Apply: func(prev any) any {
			book, ok := prev.(library.Book)
			if !ok {
				return prev
			}
			if book.AvailableCopies > 0 {
				book.AvailableCopies--
			}
			return book
		},
	}}

	for _, key := range c.store.KeysInFamily(library.FamilyBooks) {
		patches = append(patches, mutate.Patch{
			Key: key,
			Apply: func(prev any) any {
				page, ok := prev.(library.BookPage)
				if !ok {
					return prev
				}
				books := make([]library.Book, len(page.Books))
				copy(books, page.Books)
				for i := range books {
					if books[i].ID == bookID && books[i].AvailableCopies > 0 {
						books[i].AvailableCopies--
					}
				}
				page.Books = books
				return page
			},
		})
	}
	return patches
}

// ReturnLoan returns a borrowed book.
func (c *Client) ReturnLoan(ctx context.Context, loanID int) (library.Loan, error) {
	result, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindReturnLoan,
		Fence: c.fence("loan:" + strconv.Itoa(loanID)),
		Commit: func(ctx context.Context) (any, error) {
			return c.source.ReturnLoan(ctx, loanID)
		},
	})
	if err != nil {
		return library.Loan{}, err
	}
	return result.(library.Loan), nil
}

// BorrowFromCart borrows a set of cart items in one checkout request.
func (c *Client) BorrowFromCart(ctx context.Context, in remote.BorrowFromCartInput) ([]library.Loan, error) {
	result, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindBorrowFromCart,
		Fence: c.fence("cart"),
		Commit: func(ctx context.Context) (any, error) {
			return c.source.BorrowFromCart(ctx, in)
		},
	})
	if err != nil {
		return nil, err
	}
	return result.([]library.Loan), nil
}

// AddToCart places a book in the server-side cart.
func (c *Client) AddToCart(ctx context.Context, bookID int) (library.CartItem, error) {
	result, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindAddToCart,
		Fence: c.fence("book:" + strconv.Itoa(bookID)),
		Commit: func(ctx context.Context) (any, error) {
			return c.source.AddToCart(ctx, bookID)
		},
	})
	if err != nil {
		return library.CartItem{}, err
	}
	return result.(library.CartItem), nil
}

// RemoveFromCart removes one item, optimistically dropping it from
// the cached cart so the row disappears immediately.
func (c *Client) RemoveFromCart(ctx context.Context, itemID int) error {
	_, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindRemoveFromCart,
		Fence: c.fence("item:" + strconv.Itoa(itemID)),
		Patches: []mutate.Patch{{
			Key: library.CartKey(),
			Apply: func(prev any) any {
				cart, ok := prev.(library.Cart)
				if !ok {
					return prev
				}
				items := make([]library.CartItem, 0, len(cart.Items))
				for _, item := range cart.Items {
					if item.ID != itemID {
						items = append(items, item)
					}
				}
				cart.Items = items
				return cart
			},
		}},
		Commit: func(ctx context.Context) (any, error) {
			return nil, c.source.RemoveFromCart(ctx, itemID)
		},
	})
	return err
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindClearCart,
		Fence: c.fence("cart"),
		Commit: func(ctx context.Context) (any, error) {
			return nil, c.source.ClearCart(ctx)
		},
	})
	return err
}

// CreateReview posts a review. The server enforces eligibility; use
// CanReview to gate the affordance client-side.
func (c *Client) CreateReview(ctx context.Context, in remote.CreateReviewInput) (library.Review, error) {
	result, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindCreateReview,
		Fence: c.fence("book:" + strconv.Itoa(in.BookID)),
		Commit: func(ctx context.Context) (any, error) {
			return c.source.CreateReview(ctx, in)
		},
	})
	if err != nil {
		return library.Review{}, err
	}
	return result.(library.Review), nil
}

// DeleteReview removes one of the user's reviews.
func (c *Client) DeleteReview(ctx context.Context, reviewID int) error {
	_, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindDeleteReview,
		Fence: c.fence("review:" + strconv.Itoa(reviewID)),
		Commit: func(ctx context.Context) (any, error) {
			return nil, c.source.DeleteReview(ctx, reviewID)
		},
	})
	return err
}

// UpdateProfile patches the user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, in remote.UpdateProfileInput) (library.Profile, error) {
	result, err := c.coord.Do(ctx, mutate.Request{
		Kind:  mutate.KindUpdateProfile,
		Fence: c.fence("profile"),
		Commit: func(ctx context.Context) (any, error) {
			return c.source.UpdateProfile(ctx, in)
		},
	})
	if err != nil {
		return library.Profile{}, err
	}
	return result.(library.Profile), nil
}

// MutationInFlight reports whether err is the duplicate-intent guard.
func MutationInFlight(err error) bool {
	return errors.Is(err, mutate.ErrInFlight)
}
