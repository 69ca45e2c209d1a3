package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// SignatureService authenticates gateway webhook payloads with the shared
// secret agreed with the payment provider. Verify is the sole trust boundary
// between the gateway and order state: callers must treat any payload that
// fails it as adversarial.
type SignatureService interface {
	// Sign computes the HMAC-SHA256 tag over payload.
	Sign(payload []byte) []byte
	// Verify recomputes the tag over the exact raw payload bytes and compares
	// it to the provided tag in constant time.
	Verify(payload, tag []byte) bool
}

type signatureService struct {
	secret []byte
}

func NewSignatureService(sharedSecret []byte) (SignatureService, error) {
	if len(sharedSecret) == 0 {
		return nil, errors.New("gateway shared secret required")
	}
	// Own copy; config buffers may be reused.
	s := make([]byte, len(sharedSecret))
	copy(s, sharedSecret)
	return &signatureService{secret: s}, nil
}

func (s *signatureService) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

func (s *signatureService) Verify(payload, tag []byte) bool {
	// hmac.Equal, never bytes.Equal: short-circuit comparison leaks how many
	// leading bytes matched.
	return hmac.Equal(s.Sign(payload), tag)
}
