package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/configs"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/http/middleware"
	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/observ"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/security"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

// Minimal port fakes for wiring real use cases under the router.

type stubRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newStubRepo() *stubRepo { return &stubRepo{orders: map[string]*domain.Order{}} }

func (r *stubRepo) Create(_ context.Context, o *domain.Order, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubRepo) GetByIntentRef(_ context.Context, ref string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if ref != "" && o.PaymentIntentRef == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, usecase.ErrNotFound
}

func (r *stubRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	// Same ordering contract as the MySQL adapter.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *stubRepo) TransitionState(_ context.Context, id string, from, to domain.State, fields usecase.TransitionFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.State != from {
		return false, nil
	}
	o.State = to
	if o.PaymentIntentRef == "" {
		o.PaymentIntentRef = fields.PaymentIntentRef
	}
	if o.TransactionRef == "" {
		o.TransactionRef = fields.TransactionRef
	}
	return true, nil
}

func (r *stubRepo) ListStalePending(context.Context, int64) ([]domain.Order, error) { return nil, nil }
func (r *stubRepo) MarkStaleReported(context.Context, string) error                 { return nil }

type stubIdem struct{}

func (stubIdem) TryLock(context.Context, string, string) (bool, error)  { return true, nil }
func (stubIdem) Release(context.Context, string, string) error          { return nil }
func (stubIdem) Remember(context.Context, string, string, string) error { return nil }
func (stubIdem) Recall(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

type stubCache struct{}

func (stubCache) SetState(context.Context, string, string) error { return nil }
func (stubCache) GetState(context.Context, string) (string, bool, error) {
	return "", false, nil
}

type stubPublisher struct{}

func (stubPublisher) PublishSettled(context.Context, usecase.OrderSettledMsg) error { return nil }

type stubGateway struct{}

func (stubGateway) CreateIntent(_ context.Context, orderID string, amountCents int64, currency string) (*domain.PaymentIntent, error) {
	return &domain.PaymentIntent{
		ID: "pi_1", OrderID: orderID, AmountCents: amountCents, Currency: currency,
		CreatedAt: time.Now().UTC(),
	}, nil
}

const (
	testJWTSecret = "jwt-test-secret"
	testGWSecret  = "whsec_handler_test"
)

func testConfig() configs.Config {
	var cfg configs.Config
	cfg.Security.JWTSecret = testJWTSecret
	cfg.Security.Issuer = "styletrending"
	cfg.Security.Audience = "storefront"
	return cfg
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "styletrending",
		"aud": "storefront",
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func testRouter(t *testing.T, repo *stubRepo) (*gin.Engine, security.SignatureService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sigs, err := security.NewSignatureService([]byte(testGWSecret))
	require.NoError(t, err)

	checkout := usecase.NewCheckout(repo, stubIdem{}, "usd")
	issue := usecase.NewIssueIntent(repo, stubGateway{}, "usd")
	settle := usecase.NewSettle(repo, sigs, stubCache{}, stubPublisher{})

	oh := NewOrderHandler(checkout, repo)
	ph := NewPaymentHandler(issue, settle)
	return NewRouter(oh, ph, middleware.NewIdentity(testConfig())), sigs
}

func seedPendingOrder(repo *stubRepo, id, userID string) {
	repo.orders[id] = &domain.Order{
		ID:     id,
		UserID: userID,
		Items:  []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 11300}},
		Prices: domain.PriceBreakdown{
			SubtotalCents: 11300, TotalCents: 11300,
		},
		ShippingAddress:  "12 Market St",
		PaymentMethod:    "card",
		State:            domain.StatePaymentPending,
		PaymentIntentRef: "pi_1",
		CreatedAt:        time.Now().UTC(),
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)

	body := `{
		"items":[{"productId":"sku-1","quantity":1,"unitPriceCents":5000},
		         {"productId":"sku-2","quantity":2,"unitPriceCents":2500}],
		"shippingAddress":"12 Market St",
		"paymentMethod":"card",
		"prices":{"subtotalCents":10000,"taxCents":800,"shippingCents":500,"totalCents":11300}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, "user-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		OrderID string `json:"orderId"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "CREATED", resp.State)
	require.Contains(t, repo.orders, resp.OrderID)
}

func TestCheckoutEndpoint_PriceMismatch(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)

	body := `{
		"items":[{"productId":"sku-1","quantity":1,"unitPriceCents":5000}],
		"shippingAddress":"12 Market St",
		"paymentMethod":"card",
		"prices":{"subtotalCents":5000,"taxCents":0,"shippingCents":0,"totalCents":5001}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, "user-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpoint_NoToken(t *testing.T) {
	r, _ := testRouter(t, newStubRepo())

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueIntentEndpoint(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)
	repo.orders["ord-1"] = &domain.Order{
		ID: "ord-1", UserID: "user-1",
		Items:           []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 11300}},
		Prices:          domain.PriceBreakdown{SubtotalCents: 11300, TotalCents: 11300},
		ShippingAddress: "12 Market St",
		State:           domain.StateCreated,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/ord-1/payment-intent", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		IntentID    string `json:"intentId"`
		AmountCents int64  `json:"amountCents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "pi_1", resp.IntentID)
	require.Equal(t, int64(11300), resp.AmountCents)

	// Second attempt: already in progress.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/orders/ord-1/payment-intent", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCallbackEndpoint(t *testing.T) {
	repo := newStubRepo()
	r, sigs := testRouter(t, repo)
	seedPendingOrder(repo, "ord-1", "user-1")

	payload := []byte(`{"order_id":"ord-1","intent_id":"pi_1","transaction_id":"txn_9","status":"succeeded"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/callback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, hex.EncodeToString(sigs.Sign(payload)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		State          string `json:"state"`
		TransactionRef string `json:"transactionRef"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "PAID", resp.State)
	require.Equal(t, "txn_9", resp.TransactionRef)

	// Replayed delivery returns the same result.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/payments/callback", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, hex.EncodeToString(sigs.Sign(payload)))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCallbackEndpoint_BadSignature(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)
	seedPendingOrder(repo, "ord-1", "user-1")

	payload := []byte(`{"order_id":"ord-1","intent_id":"pi_1","transaction_id":"txn_9","status":"succeeded"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/callback", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, hex.EncodeToString([]byte("not a real tag...............")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, domain.StatePaymentPending, repo.orders["ord-1"].State)
}

func TestCallbackEndpoint_MissingOrMalformedSignature(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)
	seedPendingOrder(repo, "ord-1", "user-1")

	payload := []byte(`{"order_id":"ord-1","intent_id":"pi_1","transaction_id":"txn_9","status":"succeeded"}`)
	before := testutil.ToFloat64(observ.UntrustedCallbacks)

	// No tag header at all.
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/callback", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A tag that is not hex.
	req = httptest.NewRequest(http.MethodPost, "/v1/payments/callback", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, "zz-not-hex")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Both rejections count as untrusted callers, same as a wrong tag.
	require.Equal(t, before+2, testutil.ToFloat64(observ.UntrustedCallbacks))
	require.Equal(t, domain.StatePaymentPending, repo.orders["ord-1"].State)
}

func TestListOrdersEndpoint(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)
	seedPendingOrder(repo, "ord-1", "user-1")
	seedPendingOrder(repo, "ord-2", "someone-else")

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Orders []struct {
			ID string `json:"id"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	require.Equal(t, "ord-1", resp.Orders[0].ID)
}

func TestListOrdersEndpoint_NewestFirst(t *testing.T) {
	repo := newStubRepo()
	r, _ := testRouter(t, repo)

	now := time.Now().UTC()
	seedPendingOrder(repo, "ord-a", "user-1")
	seedPendingOrder(repo, "ord-b", "user-1")
	seedPendingOrder(repo, "ord-c", "user-1")
	repo.orders["ord-a"].CreatedAt = now.Add(-time.Hour)
	// ord-b and ord-c collide on created_at; the id tiebreak keeps the
	// listing stable.
	repo.orders["ord-b"].CreatedAt = now
	repo.orders["ord-c"].CreatedAt = now

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Orders []struct {
			ID string `json:"id"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 3)
	require.Equal(t, "ord-c", resp.Orders[0].ID)
	require.Equal(t, "ord-b", resp.Orders[1].ID)
	require.Equal(t, "ord-a", resp.Orders[2].ID)
}
