package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/http/middleware"
	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/observ"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

// SignatureHeader carries the hex HMAC tag the gateway computed over the raw
// request body.
const SignatureHeader = "X-Gateway-Signature"

type PaymentHandler struct {
	issue  *usecase.IssueIntent
	settle *usecase.Settle
}

func NewPaymentHandler(issue *usecase.IssueIntent, settle *usecase.Settle) *PaymentHandler {
	return &PaymentHandler{issue: issue, settle: settle}
}

type intentResp struct {
	IntentID    string `json:"intentId"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// IssueIntent mints a payment intent for the caller's order. The client hands
// the returned intent id to the gateway's client-side SDK.
func (h *PaymentHandler) IssueIntent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := h.issue.Execute(ctx, usecase.IssueIntentInput{
		OrderID: c.Param("id"),
		UserID:  c.GetString(middleware.UserIDKey),
	})
	if err != nil {
		status := http.StatusInternalServerError
		reason := "internal"
		switch {
		case errors.Is(err, usecase.ErrNotFound):
			status, reason = http.StatusNotFound, "not_found"
		case errors.Is(err, usecase.ErrInvalidState):
			status, reason = http.StatusConflict, "invalid_state"
		case errors.Is(err, usecase.ErrGatewayUnavailable):
			// Retryable: nothing was committed for this attempt.
			status, reason = http.StatusBadGateway, "gateway_unavailable"
		}
		observ.IntentIssueFailures.WithLabelValues(reason).Inc()
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, intentResp{
		IntentID:    out.IntentID,
		AmountCents: out.AmountCents,
		Currency:    out.Currency,
	})
}

type callbackPayload struct {
	OrderID       string `json:"order_id"`
	IntentID      string `json:"intent_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type callbackResp struct {
	OrderID        string `json:"orderId"`
	State          string `json:"state"`
	TransactionRef string `json:"transactionRef,omitempty"`
}

// Callback receives the gateway's server-to-server payment notification. The
// raw body bytes are captured before any decode because the HMAC tag is
// computed over exactly those bytes; the parsed fields are used only for
// routing and are re-checked against the verified order inside settlement.
func (h *PaymentHandler) Callback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64*1024))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	defer c.Request.Body.Close()

	tag, err := hex.DecodeString(c.GetHeader(SignatureHeader))
	if err != nil || len(tag) == 0 {
		// Same treatment as a wrong tag: this is an untrusted caller, not a
		// benign malformed request.
		observ.UntrustedCallbacks.Inc()
		logging.Security(c.Request.Context()).Warn("callback signature tag missing or malformed",
			"remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed signature"})
		return
	}

	var p callbackPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.settle.Execute(ctx, p.OrderID, domain.PaymentCallback{
		OrderID:       p.OrderID,
		IntentID:      p.IntentID,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		RawPayload:    raw,
		Tag:           tag,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUntrustedCallback):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "untrusted_callback"})
		case errors.Is(err, usecase.ErrIntentMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "intent_mismatch"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}

	// Replays land here too: same terminal state, same transaction ref.
	c.JSON(http.StatusOK, callbackResp{
		OrderID:        res.OrderID,
		State:          string(res.State),
		TransactionRef: res.TransactionRef,
	})
}
