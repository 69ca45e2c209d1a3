package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
)

func TestSweepStaleIntents(t *testing.T) {
	repo := newMemOrderRepo()
	outbox := &memOutbox{}
	id := pendingOrder(t, repo)

	// Age the order past the window.
	repo.mu.Lock()
	repo.orders[id].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	repo.mu.Unlock()

	uc := NewSweepStaleIntents(repo, outbox, time.Hour)
	n, err := uc.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, outbox.rows, 1)
	require.Equal(t, "intent.stale.v1", outbox.rows[0].Channel)

	// The sweep reports; it never settles.
	o, _ := repo.GetByID(context.Background(), id)
	require.Equal(t, domain.StatePaymentPending, o.State)
}

func TestSweepStaleIntents_ReportsEachOrderOnce(t *testing.T) {
	repo := newMemOrderRepo()
	outbox := &memOutbox{}
	id := pendingOrder(t, repo)

	repo.mu.Lock()
	repo.orders[id].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	repo.mu.Unlock()

	uc := NewSweepStaleIntents(repo, outbox, time.Hour)
	n, err := uc.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// The order stays pending past the window, but later ticks must not
	// pile up duplicate operator events for it.
	for i := 0; i < 2; i++ {
		n, err = uc.Execute(context.Background())
		require.NoError(t, err)
		require.Zero(t, n)
	}
	require.Len(t, outbox.rows, 1)
}

func TestSweepStaleIntents_FreshIntentIgnored(t *testing.T) {
	repo := newMemOrderRepo()
	outbox := &memOutbox{}
	pendingOrder(t, repo)

	uc := NewSweepStaleIntents(repo, outbox, time.Hour)
	n, err := uc.Execute(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, outbox.rows)
}
