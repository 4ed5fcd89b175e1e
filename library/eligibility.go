package library

// EligibleToReview reports whether the owner of the given loan
// history may review the book: true iff some loan for the book has
// been returned.
//
// Eligibility is a derived fact, recomputed from the freshest loan
// data on every call. Callers must not cache the result; loan status
// can change underneath them (an admin marking a loan returned is
// enough to flip it).
func EligibleToReview(loans []Loan, bookID int) bool {
	for _, loan := range loans {
		if loan.BookID == bookID && loan.Status == LoanReturned {
			return true
		}
	}
	return false
}

// CartItemFor returns the cart item referencing bookID, if any. Used
// by the reconciler to enforce cart/loan exclusivity after a borrow.
func CartItemFor(cart Cart, bookID int) (CartItem, bool) {
	for _, item := range cart.Items {
		if item.BookID == bookID {
			return item, true
		}
	}
	return CartItem{}, false
}
