package kafka

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

// callbackPayload is the gateway's inner payload; the tag is computed over
// its exact raw bytes, so it is decoded only after base64 recovery and the
// raw form is what goes to verification.
type callbackPayload struct {
	OrderID       string `json:"order_id"`
	IntentID      string `json:"intent_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// CallbackHandler feeds broker-delivered gateway notifications into the same
// settlement path as the HTTP webhook. The gateway may deliver on both
// transports; settlement idempotency absorbs the duplicates.
type CallbackHandler struct {
	Settle *usecase.Settle
}

func NewCallbackHandler(settle *usecase.Settle) *CallbackHandler {
	return &CallbackHandler{Settle: settle}
}

func (h *CallbackHandler) Handle(ctx context.Context, msg usecase.GatewayCallbackMsg) error {
	raw, err := base64.StdEncoding.DecodeString(msg.PayloadB64)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(msg.TagB64)
	if err != nil {
		return fmt.Errorf("decode tag: %w", err)
	}

	var p callbackPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	_, err = h.Settle.Execute(ctx, msg.OrderID, domain.PaymentCallback{
		OrderID:       p.OrderID,
		IntentID:      p.IntentID,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		RawPayload:    raw,
		Tag:           tag,
	})
	if errors.Is(err, usecase.ErrUntrustedCallback) || errors.Is(err, usecase.ErrIntentMismatch) {
		// Terminal for this message; retrying cannot make it trustworthy.
		logging.FromCtx(ctx).Warn("dropping unprocessable callback message",
			"order_id", msg.OrderID, "err", err)
		return nil
	}
	return err
}
