package usecase

import (
	"context"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
)

// TransitionFields carries the append-only gateway references a transition
// may set. Empty fields are left untouched by the store.
type TransitionFields struct {
	PaymentIntentRef string
	TransactionRef   string
}

type OrderRepo interface {
	// Create persists the order and its created-event outbox row atomically.
	Create(ctx context.Context, o *domain.Order, createdEvent []byte) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetByIntentRef resolves the order holding the given gateway intent
	// reference; used to route callbacks that do not echo the order id.
	GetByIntentRef(ctx context.Context, ref string) (*domain.Order, error)
	// ListByUser returns the user's orders newest first (stable order).
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// TransitionState applies a compare-and-swap on (id, from): the update
	// lands only if the current state equals from. Returns false on a state
	// mismatch or missing row, with no other side effect.
	TransitionState(ctx context.Context, id string, from, to domain.State, fields TransitionFields) (bool, error)
	// ListStalePending returns PAYMENT_PENDING orders created before cutoff
	// that have not yet been reported stale.
	ListStalePending(ctx context.Context, cutoff int64) ([]domain.Order, error)
	// MarkStaleReported records that the sweep has reported this order, so
	// the next tick skips it.
	MarkStaleReported(ctx context.Context, id string) error
}

type OutboxRepo interface {
	Insert(ctx context.Context, channel string, payload []byte) error
	PendingBatch(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkPublished(ctx context.Context, id int64) error
}

type OutboxRow struct {
	ID      int64
	Channel string
	Payload []byte
}

// PaymentGateway mints intents at the external payment provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, orderID string, amountCents int64, currency string) (*domain.PaymentIntent, error)
}

// CallbackVerifier authenticates raw gateway payloads (implemented by
// security.SignatureService).
type CallbackVerifier interface {
	Verify(payload, tag []byte) bool
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Release drops the lock taken by TryLock so the caller may retry after
	// a failed attempt that never reached Remember.
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// OrderCache holds the latest known order state for cheap storefront polling.
// Best effort everywhere; the repo stays authoritative.
type OrderCache interface {
	SetState(ctx context.Context, orderID string, state string) error
	GetState(ctx context.Context, orderID string) (string, bool, error)
}

type EventPublisher interface {
	PublishSettled(ctx context.Context, msg OrderSettledMsg) error
}
