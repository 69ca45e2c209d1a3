package usecase

import "errors"

var (
	// ErrValidation: malformed or inconsistent input; client must fix and
	// resend, never retried as-is.
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	// ErrDuplicate: idempotency key already locked by an in-flight checkout.
	ErrDuplicate = errors.New("duplicate idempotency key")
	// ErrInvalidState: operation not legal for the order's current lifecycle
	// state (e.g. issuing an intent twice).
	ErrInvalidState = errors.New("invalid order state")
	ErrConflict     = errors.New("state transition conflict")
	// ErrGatewayUnavailable: transient transport failure talking to the
	// payment provider; no local state was committed, safe to retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrUntrustedCallback: signature verification failed. Always logged as a
	// security event; the order is never touched.
	ErrUntrustedCallback = errors.New("untrusted payment callback")
	// ErrIntentMismatch: callback references an intent that does not belong
	// to the order, or an order we do not hold. Blocks cross-order replay.
	ErrIntentMismatch = errors.New("payment intent mismatch")
)
