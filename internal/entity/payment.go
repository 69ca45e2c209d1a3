package domain

import "time"

// PaymentIntent is the gateway-side record of an authorized-but-unsettled
// collection attempt. Amount always comes from the order total, never from
// client input.
type PaymentIntent struct {
	ID          string
	OrderID     string
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
}

const (
	CallbackStatusSucceeded = "succeeded"
	CallbackStatusFailed    = "failed"
)

// PaymentCallback is an inbound gateway notification. Untrusted until Tag is
// verified against RawPayload; nothing in here may drive a state change
// before that.
type PaymentCallback struct {
	OrderID       string
	IntentID      string
	TransactionID string
	Status        string

	// RawPayload is the exact wire bytes the tag was computed over.
	RawPayload []byte
	Tag        []byte
}
