package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

// PSPClient talks to the payment service provider's REST API. Transport
// failures and provider 5xx map to usecase.ErrGatewayUnavailable so callers
// know no intent was (observably) minted and the attempt is retryable.
type PSPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewPSPClient(baseURL, apiKey string, timeout time.Duration) *PSPClient {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &PSPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type createIntentReq struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

type createIntentResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Created  int64  `json:"created"`
}

func (c *PSPClient) CreateIntent(ctx context.Context, orderID string, amountCents int64, currency string) (*domain.PaymentIntent, error) {
	body, err := json.Marshal(createIntentReq{
		Amount:   amountCents,
		Currency: currency,
		Metadata: map[string]string{"order_id": orderID},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// Covers timeouts and connection failures; ctx errors included.
		return nil, fmt.Errorf("%w: %v", usecase.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: gateway returned %d", usecase.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway rejected intent (%d): %s", resp.StatusCode, snippet)
	}

	var out createIntentResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}
	return &domain.PaymentIntent{
		ID:          out.ID,
		OrderID:     orderID,
		AmountCents: out.Amount,
		Currency:    out.Currency,
		CreatedAt:   time.Unix(out.Created, 0).UTC(),
	}, nil
}

var _ usecase.PaymentGateway = (*PSPClient)(nil)
