package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
)

type CheckoutInput struct {
	UserID          string
	IdempotencyKey  string
	Items           []domain.LineItem
	ShippingAddress string
	PaymentMethod   string
	Prices          domain.PriceBreakdown
}

type CheckoutOutput struct {
	OrderID string
	State   domain.State
}

// Checkout creates an order in CREATED state from submitted cart contents.
type Checkout struct {
	repo     OrderRepo
	idem     IdempotencyStore
	currency string
}

func NewCheckout(repo OrderRepo, idem IdempotencyStore, currency string) *Checkout {
	return &Checkout{repo: repo, idem: idem, currency: currency}
}

func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	// Fast path: a replayed submission returns the original order with its
	// current state, which may have moved on since the first submission.
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, in.UserID, in.IdempotencyKey); ok {
			if o, err := uc.repo.GetByID(ctx, id); err == nil {
				return CheckoutOutput{OrderID: id, State: o.State}, nil
			}
			return CheckoutOutput{OrderID: id, State: domain.StateCreated}, nil
		}
	}

	o := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Prices:          in.Prices,
		State:           domain.StateCreated,
		CreatedAt:       time.Now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return CheckoutOutput{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if in.IdempotencyKey != "" {
		ok, err := uc.idem.TryLock(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return CheckoutOutput{}, err
		}
		if !ok {
			return CheckoutOutput{}, ErrDuplicate
		}
	}

	event, _ := json.Marshal(OrderCreatedMsg{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.Prices.TotalCents,
		Currency:   uc.currency,
	})
	if err := uc.repo.Create(ctx, o, event); err != nil {
		// Give the key back so an honest retry is not stuck behind the
		// lock TTL.
		if in.IdempotencyKey != "" {
			_ = uc.idem.Release(ctx, in.UserID, in.IdempotencyKey)
		}
		return CheckoutOutput{}, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, in.UserID, in.IdempotencyKey, o.ID)
	}
	return CheckoutOutput{OrderID: o.ID, State: o.State}, nil
}
