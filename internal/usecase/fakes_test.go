package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
)

// In-memory ports mirroring the MySQL/Redis adapters' semantics, including
// the compare-and-swap transition.

type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	events    [][]byte
	reported  map[string]bool
	createErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]*domain.Order{}, reported: map[string]bool{}}
}

func (r *memOrderRepo) Create(_ context.Context, o *domain.Order, createdEvent []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *o
	r.orders[o.ID] = &cp
	if len(createdEvent) > 0 {
		r.events = append(r.events, createdEvent)
	}
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetByIntentRef(_ context.Context, ref string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref == "" {
		return nil, ErrNotFound
	}
	for _, o := range r.orders {
		if o.PaymentIntentRef == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memOrderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memOrderRepo) TransitionState(_ context.Context, id string, from, to domain.State, fields TransitionFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.State != from {
		return false, nil
	}
	o.State = to
	if o.PaymentIntentRef == "" && fields.PaymentIntentRef != "" {
		o.PaymentIntentRef = fields.PaymentIntentRef
	}
	if o.TransactionRef == "" && fields.TransactionRef != "" {
		o.TransactionRef = fields.TransactionRef
	}
	return true, nil
}

func (r *memOrderRepo) ListStalePending(_ context.Context, cutoff int64) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.State == domain.StatePaymentPending && o.CreatedAt.Unix() < cutoff && !r.reported[o.ID] {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) MarkStaleReported(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported[id] = true
	return nil
}

type memOutbox struct {
	mu   sync.Mutex
	rows []OutboxRow
	next int64
}

func (b *memOutbox) Insert(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.rows = append(b.rows, OutboxRow{ID: b.next, Channel: channel, Payload: payload})
	return nil
}

func (b *memOutbox) PendingBatch(_ context.Context, limit int) ([]OutboxRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.rows) < limit {
		limit = len(b.rows)
	}
	return append([]OutboxRow(nil), b.rows[:limit]...), nil
}

func (b *memOutbox) MarkPublished(_ context.Context, id int64) error { return nil }

type memIdem struct {
	mu     sync.Mutex
	locked map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locked: map[string]bool{}, values: map[string]string{}}
}

func (s *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + key
	if s.locked[k] {
		return false, nil
	}
	s.locked[k] = true
	return true, nil
}

func (s *memIdem) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locked, scope+":"+key)
	return nil
}

func (s *memIdem) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+":"+key] = value
	return nil
}

func (s *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope+":"+key]
	return v, ok, nil
}

type memCache struct {
	mu     sync.Mutex
	states map[string]string
}

func newMemCache() *memCache { return &memCache{states: map[string]string{}} }

func (c *memCache) SetState(_ context.Context, orderID, state string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[orderID] = state
	return nil
}

func (c *memCache) GetState(_ context.Context, orderID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[orderID]
	return s, ok, nil
}

type fakeGateway struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *fakeGateway) CreateIntent(_ context.Context, orderID string, amountCents int64, currency string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, fmt.Errorf("%w: dial tcp: connection refused", ErrGatewayUnavailable)
	}
	g.calls++
	return &domain.PaymentIntent{
		ID:          fmt.Sprintf("pi_%d", g.calls),
		OrderID:     orderID,
		AmountCents: amountCents,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	settled []OrderSettledMsg
}

func (p *fakePublisher) PublishSettled(_ context.Context, msg OrderSettledMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled = append(p.settled, msg)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.settled)
}
