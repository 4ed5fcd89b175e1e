package library

import "time"

// Role identifies the account type of a user.
type Role string

// Valid roles.
const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

// Valid loan statuses.
const (
	LoanBorrowed LoanStatus = "BORROWED"
	LoanReturned LoanStatus = "RETURNED"
)

// Author is a book author.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

// Category is a book category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Book is a catalog entry. AvailableCopies is the field optimistic
// borrow patches speculate on.
type Book struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	ISBN            string    `json:"isbn,omitempty"`
	Description     string    `json:"description,omitempty"`
	PublishedYear   int       `json:"publishedYear,omitempty"`
	CoverImage      string    `json:"coverImage,omitempty"`
	Rating          float64   `json:"rating,omitempty"`
	ReviewCount     int       `json:"reviewCount,omitempty"`
	TotalCopies     int       `json:"totalCopies,omitempty"`
	AvailableCopies int       `json:"availableCopies,omitempty"`
	BorrowCount     int       `json:"borrowCount,omitempty"`
	Author          *Author   `json:"author,omitempty"`
	Category        *Category `json:"category,omitempty"`
}

// Review is a user's rating of a book.
type Review struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	BookID    int       `json:"bookId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Book      *Book     `json:"book,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Loan ties one user to one book for a borrowing period.
type Loan struct {
	ID         int        `json:"id"`
	BookID     int        `json:"bookId"`
	UserID     int        `json:"userId,omitempty"`
	Book       *Book      `json:"book,omitempty"`
	BorrowDate string     `json:"borrowDate"`
	DueDate    string     `json:"dueDate"`
	ReturnDate string     `json:"returnDate,omitempty"`
	Status     LoanStatus `json:"status"`
}

// CartItem is a book placed in the server-side cart. Its existence is
// independent of any loan; the reconciler enforces exclusivity.
type CartItem struct {
	ID     int   `json:"id"`
	BookID int   `json:"bookId"`
	Book   *Book `json:"book,omitempty"`
}

// Cart is the full server-side cart contents.
type Cart struct {
	Items []CartItem `json:"items"`
}

// User is an account as listed by the admin user management view.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// LoanStats summarizes a user's borrowing history.
type LoanStats struct {
	TotalBorrowed     int `json:"totalBorrowed"`
	CurrentlyBorrowed int `json:"currentlyBorrowed"`
	Returned          int `json:"returned"`
	Overdue           int `json:"overdue,omitempty"`
}

// Profile is the authenticated user's account data.
type Profile struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Phone string     `json:"phone,omitempty"`
	Bio   string     `json:"bio,omitempty"`
	Role  Role       `json:"role"`
	Stats *LoanStats `json:"stats,omitempty"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// BookPage is a page of books with its pagination envelope.
type BookPage struct {
	Books      []Book      `json:"books"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// LoanPage is a page of loans.
type LoanPage struct {
	Loans      []Loan      `json:"loans"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ReviewPage is a page of reviews.
type ReviewPage struct {
	Reviews    []Review    `json:"reviews"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// UserPage is a page of users.
type UserPage struct {
	Users      []User      `json:"users"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
