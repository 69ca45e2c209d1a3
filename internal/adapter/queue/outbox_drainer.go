package queue

import (
	"context"
	"time"

	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

// OutboxDrainer periodically publishes pending outbox rows to the exchange
// and marks them published. Rows that fail to publish stay pending and are
// retried on the next tick.
type OutboxDrainer struct {
	outbox   usecase.OutboxRepo
	producer *RabbitProducer
	interval time.Duration
	batch    int
}

func NewOutboxDrainer(outbox usecase.OutboxRepo, producer *RabbitProducer, interval time.Duration) *OutboxDrainer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxDrainer{outbox: outbox, producer: producer, interval: interval, batch: 100}
}

// Run blocks until ctx is cancelled.
func (d *OutboxDrainer) Run(ctx context.Context) {
	log := logging.New("outbox-drainer")
	t := time.NewTicker(d.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := d.drainOnce(ctx); err != nil {
				log.Error("drain failed", "err", err)
			}
		}
	}
}

func (d *OutboxDrainer) drainOnce(ctx context.Context) error {
	rows, err := d.outbox.PendingBatch(ctx, d.batch)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := d.producer.Publish(ctx, routingKeyFor(row.Channel), row.Payload); err != nil {
			return err
		}
		if err := d.outbox.MarkPublished(ctx, row.ID); err != nil {
			return err
		}
	}
	return nil
}
