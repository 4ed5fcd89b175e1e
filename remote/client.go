package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookyhq/booksync/library"
)

// Client is the production Source over net/http. The session
// transport injects the bearer credential; the client itself is
// agnostic to auth beyond classifying 401s.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, typically to
// install the session round tripper.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client rooted at baseURL (e.g. "https://api.example.com/api").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one request and decodes the envelope into out, applying
// the error taxonomy to failures.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	env, envErr := decodeEnvelope(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp.StatusCode, env.Message, env.Errors)
	}
	if envErr != nil {
		return envErr
	}
	if len(raw) > 0 && !env.Success {
		return &ServerError{Status: resp.StatusCode, Message: env.Message}
	}
	return decodeData(env, out)
}

func listQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (q BooksQuery) values() url.Values {
	v := listQuery(q.Page, q.Limit)
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.CategoryID > 0 {
		v.Set("categoryId", strconv.Itoa(q.CategoryID))
	}
	if q.AuthorID > 0 {
		v.Set("authorId", strconv.Itoa(q.AuthorID))
	}
	if q.MinRating > 0 {
		v.Set("minRating", strconv.Itoa(q.MinRating))
	}
	if q.By != "" {
		v.Set("by", q.By)
	}
	return v
}

func (q UsersQuery) values() url.Values {
	v := listQuery(q.Page, q.Limit)
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	return v
}

func (q LoansQuery) values() url.Values {
	v := listQuery(q.Page, q.Limit)
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// GetBooks fetches one page of the catalog.
func (c *Client) GetBooks(ctx context.Context, q BooksQuery) (library.BookPage, error) {
	var page library.BookPage
	err := c.do(ctx, http.MethodGet, "/books", q.values(), nil, &page)
	return page, err
}

// GetBook fetches one book's detail. The endpoint returns the book
// directly as the data payload.
func (c *Client) GetBook(ctx context.Context, id int) (library.Book, error) {
	var book library.Book
	err := c.do(ctx, http.MethodGet, "/books/"+strconv.Itoa(id), nil, nil, &book)
	return book, err
}

// GetRecommendedBooks fetches the recommendation list.
func (c *Client) GetRecommendedBooks(ctx context.Context, q BooksQuery) (library.BookPage, error) {
	var page library.BookPage
	err := c.do(ctx, http.MethodGet, "/books/recommend", q.values(), nil, &page)
	return page, err
}

// GetCategories fetches all categories.
func (c *Client) GetCategories(ctx context.Context) ([]library.Category, error) {
	var data struct {
		Categories []library.Category `json:"categories"`
	}
	err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &data)
	return data.Categories, err
}

// GetAuthors fetches authors, optionally filtered by search term.
func (c *Client) GetAuthors(ctx context.Context, search string) ([]library.Author, error) {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	var data struct {
		Authors []library.Author `json:"authors"`
	}
	err := c.do(ctx, http.MethodGet, "/authors", q, nil, &data)
	return data.Authors, err
}

// GetMyLoans fetches the authenticated user's loan history.
func (c *Client) GetMyLoans(ctx context.Context, q LoansQuery) (library.LoanPage, error) {
	var page library.LoanPage
	err := c.do(ctx, http.MethodGet, "/me/loans", q.values(), nil, &page)
	return page, err
}

// GetAdminLoans fetches all loans with pagination and filters (admin).
func (c *Client) GetAdminLoans(ctx context.Context, q LoansQuery) (library.LoanPage, error) {
	var page library.LoanPage
	err := c.do(ctx, http.MethodGet, "/admin/loans", q.values(), nil, &page)
	return page, err
}

// GetOverdueLoans fetches overdue loans (admin).
func (c *Client) GetOverdueLoans(ctx context.Context) (library.LoanPage, error) {
	var page library.LoanPage
	err := c.do(ctx, http.MethodGet, "/admin/loans/overdue", nil, nil, &page)
	return page, err
}

// GetAdminBooks fetches the admin catalog listing.
func (c *Client) GetAdminBooks(ctx context.Context, q BooksQuery) (library.BookPage, error) {
	var page library.BookPage
	err := c.do(ctx, http.MethodGet, "/admin/books", q.values(), nil, &page)
	return page, err
}

// GetAdminUsers fetches the registered-user listing (admin).
func (c *Client) GetAdminUsers(ctx context.Context, q UsersQuery) (library.UserPage, error) {
	var page library.UserPage
	err := c.do(ctx, http.MethodGet, "/admin/users", q.values(), nil, &page)
	return page, err
}

// BorrowBook borrows a book directly, creating a loan.
func (c *Client) BorrowBook(ctx context.Context, bookID int) (library.Loan, error) {
	var data struct {
		Loan library.Loan `json:"loan"`
	}
	err := c.do(ctx, http.MethodPost, "/loans", nil, map[string]int{"bookId": bookID}, &data)
	return data.Loan, err
}

// ReturnLoan returns a borrowed book.
func (c *Client) ReturnLoan(ctx context.Context, loanID int) (library.Loan, error) {
	var data struct {
		Loan library.Loan `json:"loan"`
	}
	err := c.do(ctx, http.MethodPatch, "/loans/"+strconv.Itoa(loanID)+"/returns", nil, nil, &data)
	return data.Loan, err
}

// BorrowFromCart borrows a set of cart items in one checkout request.
func (c *Client) BorrowFromCart(ctx context.Context, in BorrowFromCartInput) ([]library.Loan, error) {
	var data struct {
		Loans []library.Loan `json:"loans"`
	}
	err := c.do(ctx, http.MethodPost, "/loans/from-cart", nil, in, &data)
	return data.Loans, err
}

// GetBookReviews fetches one book's reviews.
func (c *Client) GetBookReviews(ctx context.Context, bookID int, q PageQuery) (library.ReviewPage, error) {
	var page library.ReviewPage
	err := c.do(ctx, http.MethodGet, "/books/"+strconv.Itoa(bookID)+"/reviews", listQuery(q.Page, q.Limit), nil, &page)
	return page, err
}

// GetMyReviews fetches the authenticated user's reviews.
func (c *Client) GetMyReviews(ctx context.Context, q PageQuery) (library.ReviewPage, error) {
	var page library.ReviewPage
	err := c.do(ctx, http.MethodGet, "/me/reviews", listQuery(q.Page, q.Limit), nil, &page)
	return page, err
}

// CreateReview posts a review for a borrowed-and-returned book.
func (c *Client) CreateReview(ctx context.Context, in CreateReviewInput) (library.Review, error) {
	var data struct {
		Review library.Review `json:"review"`
	}
	err := c.do(ctx, http.MethodPost, "/reviews", nil, in, &data)
	return data.Review, err
}

// DeleteReview removes one of the user's reviews.
func (c *Client) DeleteReview(ctx context.Context, reviewID int) error {
	return c.do(ctx, http.MethodDelete, "/reviews/"+strconv.Itoa(reviewID), nil, nil, nil)
}

// GetProfile fetches the authenticated user's profile. The endpoint
// has shipped two envelope shapes (flat profile, and profile nested
// beside loan stats); both normalize to one Profile here.
func (c *Client) GetProfile(ctx context.Context) (library.Profile, error) {
	var data struct {
		library.Profile
		Nested *library.Profile   `json:"profile"`
		Stats  *library.LoanStats `json:"loanStats"`
	}
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &data); err != nil {
		return library.Profile{}, err
	}

	profile := data.Profile
	if data.Nested != nil {
		profile = *data.Nested
	}
	if profile.Stats == nil && data.Stats != nil {
		profile.Stats = data.Stats
	}
	return profile, nil
}

// UpdateProfile patches the user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileInput) (library.Profile, error) {
	var data struct {
		library.Profile
		Nested *library.Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodPatch, "/me", nil, in, &data); err != nil {
		return library.Profile{}, err
	}
	if data.Nested != nil {
		return *data.Nested, nil
	}
	return data.Profile, nil
}

// GetCart fetches the server-side cart contents.
func (c *Client) GetCart(ctx context.Context) (library.Cart, error) {
	var cart library.Cart
	err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &cart)
	return cart, err
}

// AddToCart places a book in the cart.
func (c *Client) AddToCart(ctx context.Context, bookID int) (library.CartItem, error) {
	var data struct {
		Item library.CartItem `json:"item"`
	}
	err := c.do(ctx, http.MethodPost, "/cart/items", nil, map[string]int{"bookId": bookID}, &data)
	return data.Item, err
}

// RemoveFromCart removes one item from the cart. Idempotent on the
// server side.
func (c *Client) RemoveFromCart(ctx context.Context, itemID int) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/"+strconv.Itoa(itemID), nil, nil, nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
}

// Ensure Client implements Source.
var _ Source = (*Client)(nil)
