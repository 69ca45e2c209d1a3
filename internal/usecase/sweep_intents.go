package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
)

const outboxChannelStale = "intent.stale.v1"

type staleIntentEvent struct {
	OrderID          string `json:"orderId"`
	PaymentIntentRef string `json:"paymentIntentRef"`
	CreatedAt        int64  `json:"createdAt"`
}

// SweepStaleIntents surfaces PAYMENT_PENDING orders whose intent has gone
// unclaimed for longer than maxAge. Each order is reported once (log + outbox
// event for the operations pipeline) but never transitioned: only a verified
// gateway callback decides a payment's outcome, and money may still arrive
// for an old intent.
type SweepStaleIntents struct {
	repo   OrderRepo
	outbox OutboxRepo
	maxAge time.Duration
}

func NewSweepStaleIntents(repo OrderRepo, outbox OutboxRepo, maxAge time.Duration) *SweepStaleIntents {
	return &SweepStaleIntents{repo: repo, outbox: outbox, maxAge: maxAge}
}

func (uc *SweepStaleIntents) Execute(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-uc.maxAge).Unix()
	stale, err := uc.repo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, o := range stale {
		logging.FromCtx(ctx).Warn("stale payment intent",
			"order_id", o.ID, "intent_id", o.PaymentIntentRef,
			"age", time.Since(o.CreatedAt).String())
		ev, _ := json.Marshal(staleIntentEvent{
			OrderID:          o.ID,
			PaymentIntentRef: o.PaymentIntentRef,
			CreatedAt:        o.CreatedAt.Unix(),
		})
		if err := uc.outbox.Insert(ctx, outboxChannelStale, ev); err != nil {
			return 0, err
		}
		// Each order is reported once; later ticks skip it.
		if err := uc.repo.MarkStaleReported(ctx, o.ID); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
