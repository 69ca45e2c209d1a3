package domain

import (
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateCreated        State = "CREATED"
	StatePaymentPending State = "PAYMENT_PENDING"
	StatePaid           State = "PAID"
	StatePaymentFailed  State = "PAYMENT_FAILED"
)

// Terminal reports whether no further transition may leave s.
func (s State) Terminal() bool {
	return s == StatePaid || s == StatePaymentFailed
}

var (
	ErrEmptyCart      = errors.New("order must contain at least one line item")
	ErrBadLineItem    = errors.New("invalid line item")
	ErrBadPrice       = errors.New("invalid price breakdown")
	ErrPriceMismatch  = errors.New("total does not equal subtotal + tax + shipping")
	ErrMissingAddress = errors.New("shipping address required")
)

type LineItem struct {
	ProductID      string
	Quantity       int
	UnitPriceCents int64
}

// PriceBreakdown holds amounts in minor currency units.
type PriceBreakdown struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

func (p PriceBreakdown) Validate() error {
	if p.SubtotalCents < 0 || p.TaxCents < 0 || p.ShippingCents < 0 || p.TotalCents < 0 {
		return ErrBadPrice
	}
	if p.TotalCents != p.SubtotalCents+p.TaxCents+p.ShippingCents {
		return ErrPriceMismatch
	}
	return nil
}

type Order struct {
	ID              string
	UserID          string
	Items           []LineItem
	ShippingAddress string
	PaymentMethod   string
	Prices          PriceBreakdown
	State           State
	// Gateway references; each is set at most once and never cleared.
	PaymentIntentRef string
	TransactionRef   string
	CreatedAt        time.Time
}

func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	for i, it := range o.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.UnitPriceCents < 0 {
			return fmt.Errorf("%w: item %d", ErrBadLineItem, i)
		}
	}
	if o.ShippingAddress == "" {
		return ErrMissingAddress
	}
	return o.Prices.Validate()
}
