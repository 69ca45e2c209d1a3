package usecase

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
)

type IssueIntentInput struct {
	OrderID string
	UserID  string // caller identity; order must belong to it
}

type IssueIntentOutput struct {
	IntentID    string
	AmountCents int64
	Currency    string
}

// IssueIntent mints a payment intent at the gateway for an order in CREATED
// state and moves the order to PAYMENT_PENDING. The amount is always the
// order's stored total; client-supplied amounts are never consulted.
//
// Nothing is committed locally before the gateway confirms, so a failed or
// timed-out call leaves the order in CREATED and the whole operation is safe
// to retry.
type IssueIntent struct {
	repo     OrderRepo
	gw       PaymentGateway
	currency string
}

func NewIssueIntent(repo OrderRepo, gw PaymentGateway, currency string) *IssueIntent {
	return &IssueIntent{repo: repo, gw: gw, currency: currency}
}

func (uc *IssueIntent) Execute(ctx context.Context, in IssueIntentInput) (IssueIntentOutput, error) {
	o, err := uc.repo.GetByID(ctx, in.OrderID)
	if err != nil {
		return IssueIntentOutput{}, err
	}
	if o.UserID != in.UserID {
		// Not the caller's order; indistinguishable from absent.
		return IssueIntentOutput{}, ErrNotFound
	}
	if o.State != domain.StateCreated {
		return IssueIntentOutput{}, fmt.Errorf("%w: order is %s", ErrInvalidState, o.State)
	}

	intent, err := uc.gw.CreateIntent(ctx, o.ID, o.Prices.TotalCents, uc.currency)
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			return IssueIntentOutput{}, err
		}
		return IssueIntentOutput{}, fmt.Errorf("create intent: %w", err)
	}

	ok, err := uc.repo.TransitionState(ctx, o.ID, domain.StateCreated, domain.StatePaymentPending,
		TransitionFields{PaymentIntentRef: intent.ID})
	if err != nil {
		return IssueIntentOutput{}, err
	}
	if !ok {
		// A concurrent attempt won between our read and the swap. The intent
		// we minted is orphaned but harmless: it is never attached to the
		// order, so it can never settle against it. The reconciliation sweep
		// surfaces such intents to operators.
		logging.FromCtx(ctx).Warn("orphaned payment intent",
			"order_id", o.ID, "intent_id", intent.ID)
		return IssueIntentOutput{}, fmt.Errorf("%w: payment already in progress", ErrInvalidState)
	}

	return IssueIntentOutput{
		IntentID:    intent.ID,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
	}, nil
}
