package usecase

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/observ"
)

type SettlementResult struct {
	OrderID        string
	State          domain.State
	TransactionRef string
	// AlreadySettled marks an idempotent replay: the order was terminal
	// before this call and nothing was mutated.
	AlreadySettled bool
}

// Settle applies a verified gateway callback to an order, exactly once.
// Duplicate deliveries (same transport or across webhook/Kafka) converge on
// the recorded terminal state instead of erroring.
type Settle struct {
	repo     OrderRepo
	verifier CallbackVerifier
	cache    OrderCache
	events   EventPublisher
}

func NewSettle(repo OrderRepo, verifier CallbackVerifier, cache OrderCache, events EventPublisher) *Settle {
	return &Settle{repo: repo, verifier: verifier, cache: cache, events: events}
}

func (uc *Settle) Execute(ctx context.Context, orderID string, cb domain.PaymentCallback) (SettlementResult, error) {
	// Trust boundary. Until the tag checks out, every field of cb is
	// adversarial input and no order may be read into a decision.
	if !uc.verifier.Verify(cb.RawPayload, cb.Tag) {
		observ.UntrustedCallbacks.Inc()
		logging.Security(ctx).Warn("callback signature verification failed",
			"order_id", orderID, "claimed_intent", cb.IntentID)
		return SettlementResult{}, ErrUntrustedCallback
	}

	// Route by the echoed order id when present, falling back to the intent
	// reference for gateways that only send their own identifier.
	var o *domain.Order
	var err error
	if orderID != "" {
		o, err = uc.repo.GetByID(ctx, orderID)
	} else {
		o, err = uc.repo.GetByIntentRef(ctx, cb.IntentID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Do not disclose which orders exist to a caller holding a valid
			// secret but a bogus reference.
			return SettlementResult{}, ErrIntentMismatch
		}
		return SettlementResult{}, err
	}
	if o.PaymentIntentRef == "" || o.PaymentIntentRef != cb.IntentID {
		return SettlementResult{}, fmt.Errorf("%w: order %s", ErrIntentMismatch, o.ID)
	}

	// Duplicate delivery: return the recorded outcome, touch nothing.
	if o.State.Terminal() {
		return SettlementResult{
			OrderID:        o.ID,
			State:          o.State,
			TransactionRef: o.TransactionRef,
			AlreadySettled: true,
		}, nil
	}

	target := domain.StatePaymentFailed
	var fields TransitionFields
	if cb.Status == domain.CallbackStatusSucceeded {
		target = domain.StatePaid
		fields.TransactionRef = cb.TransactionID
	}

	ok, err := uc.repo.TransitionState(ctx, o.ID, domain.StatePaymentPending, target, fields)
	if err != nil {
		return SettlementResult{}, err
	}
	if !ok {
		// Another settlement won the race. Settlement converges: report the
		// now-current terminal state rather than assigning blame.
		cur, err := uc.repo.GetByID(ctx, o.ID)
		if err != nil {
			return SettlementResult{}, err
		}
		return SettlementResult{
			OrderID:        cur.ID,
			State:          cur.State,
			TransactionRef: cur.TransactionRef,
			AlreadySettled: true,
		}, nil
	}

	observ.Settlements.WithLabelValues(string(target)).Inc()
	_ = uc.cache.SetState(ctx, o.ID, string(target))
	// Only the transition winner publishes; losers returned above.
	_ = uc.events.PublishSettled(ctx, OrderSettledMsg{
		OrderID:        o.ID,
		UserID:         o.UserID,
		State:          string(target),
		TransactionRef: fields.TransactionRef,
	})

	return SettlementResult{
		OrderID:        o.ID,
		State:          target,
		TransactionRef: fields.TransactionRef,
	}, nil
}
