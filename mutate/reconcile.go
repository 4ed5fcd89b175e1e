package mutate

import (
	"context"

	"github.com/bookyhq/booksync/library"
	"github.com/bookyhq/booksync/observe"
	"github.com/bookyhq/booksync/store"
)

// CartRemover is the one remote operation the cart/loan reconciler
// needs. Satisfied by remote.Client.
type CartRemover interface {
	RemoveFromCart(ctx context.Context, itemID int) error
}

// CartLoanReconciler enforces cart/loan exclusivity: once a loan for
// book B settles as BORROWED, a cart item for B is a stale intent and
// is retracted. The backend does not remove the item itself when the
// book is borrowed directly, so the client does.
//
// The retraction is a dependent mutation: its failure is logged and
// swallowed, and the cart family is invalidated unconditionally so
// the UI converges to server truth either way.
type CartLoanReconciler struct {
	store   *store.Store
	remover CartRemover
	logger  observe.Logger
}

// NewCartLoanReconciler creates the reconciler.
func NewCartLoanReconciler(s *store.Store, remover CartRemover, logger observe.Logger) *CartLoanReconciler {
	if logger == nil {
		logger = observe.NoopLogger()
	}
	return &CartLoanReconciler{store: s, remover: remover, logger: logger}
}

// Kind reports the mutation this reconciler reacts to.
func (r *CartLoanReconciler) Kind() Kind {
	return KindBorrowBook
}

// Reconcile inspects the cached cart for an item referencing the
// borrowed book and retracts it.
func (r *CartLoanReconciler) Reconcile(ctx context.Context, result any) {
	defer r.store.InvalidateFamily(library.FamilyCart)

	loan, ok := result.(library.Loan)
	if !ok {
		return
	}

	entry := r.store.Read(library.CartKey())
	cart, ok := entry.Data.(library.Cart)
	if !ok {
		return
	}

	item, found := library.CartItemFor(cart, loan.BookID)
	if !found {
		return
	}

	if err := r.remover.RemoveFromCart(ctx, item.ID); err != nil {
		// Swallowed: the invalidation refetch converges the cart.
		r.logger.Warn(ctx, "cart retraction after borrow failed",
			observe.F("book_id", loan.BookID),
			observe.F("item_id", item.ID),
			observe.F("error", err.Error()))
	}
}

// Ensure CartLoanReconciler implements Reconciler.
var _ Reconciler = (*CartLoanReconciler)(nil)
