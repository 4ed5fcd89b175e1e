package remote

import (
	"context"

	"github.com/bookyhq/booksync/library"
)

// BooksQuery are the list parameters accepted by the catalog endpoints.
type BooksQuery struct {
	Query      string
	CategoryID int
	AuthorID   int
	MinRating  int
	By         string // recommendation ordering: rating|popular
	Page       int
	Limit      int
}

// LoansQuery are the list parameters accepted by the loan endpoints.
type LoansQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// PageQuery is plain pagination.
type PageQuery struct {
	Page  int
	Limit int
}

// UsersQuery are the list parameters accepted by the admin user
// listing.
type UsersQuery struct {
	Query string
	Page  int
	Limit int
}

// CreateReviewInput is the payload for creating a review.
type CreateReviewInput struct {
	BookID  int    `json:"bookId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// UpdateProfileInput is the payload for updating the user's profile.
type UpdateProfileInput struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

// BorrowFromCartInput borrows a set of cart items in one request.
type BorrowFromCartInput struct {
	ItemIDs    []int  `json:"itemIds"`
	BorrowDate string `json:"borrowDate"`
	Duration   int    `json:"duration"` // days: 3, 5, or 10
}

// Source is the remote data source the sync layer fetches and commits
// through. The production implementation is Client; tests substitute
// fakes.
//
// Contract:
// - Context: every call honors cancellation and deadlines.
// - Errors: failures are classified per errors.go; no raw transport
//   errors escape.
type Source interface {
	GetBooks(ctx context.Context, q BooksQuery) (library.BookPage, error)
	GetBook(ctx context.Context, id int) (library.Book, error)
	GetRecommendedBooks(ctx context.Context, q BooksQuery) (library.BookPage, error)
	GetCategories(ctx context.Context) ([]library.Category, error)
	GetAuthors(ctx context.Context, search string) ([]library.Author, error)

	GetMyLoans(ctx context.Context, q LoansQuery) (library.LoanPage, error)
	GetAdminLoans(ctx context.Context, q LoansQuery) (library.LoanPage, error)
	GetOverdueLoans(ctx context.Context) (library.LoanPage, error)
	BorrowBook(ctx context.Context, bookID int) (library.Loan, error)
	ReturnLoan(ctx context.Context, loanID int) (library.Loan, error)
	BorrowFromCart(ctx context.Context, in BorrowFromCartInput) ([]library.Loan, error)

	GetBookReviews(ctx context.Context, bookID int, q PageQuery) (library.ReviewPage, error)
	GetMyReviews(ctx context.Context, q PageQuery) (library.ReviewPage, error)
	CreateReview(ctx context.Context, in CreateReviewInput) (library.Review, error)
	DeleteReview(ctx context.Context, reviewID int) error

	GetProfile(ctx context.Context) (library.Profile, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (library.Profile, error)

	GetAdminBooks(ctx context.Context, q BooksQuery) (library.BookPage, error)
	GetAdminUsers(ctx context.Context, q UsersQuery) (library.UserPage, error)

	GetCart(ctx context.Context) (library.Cart, error)
	AddToCart(ctx context.Context, bookID int) (library.CartItem, error)
	RemoveFromCart(ctx context.Context, itemID int) error
	ClearCart(ctx context.Context) error
}
