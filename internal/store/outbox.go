/**
 * @description
 * This file implements the outbox dispatcher: a poller that claims unpublished
 * completion events from the `transfer_outbox` table and publishes them to the
 * message broker. Rows are claimed with `FOR UPDATE SKIP LOCKED` so several
 * dispatcher instances can run side by side without double-claiming, and a row
 * is only marked published after the broker accepted it. A crash between
 * publish and mark re-delivers the event on the next pass, which is why
 * delivery is at-least-once and consumers deduplicate by event ID.
 */

package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/internal/telemetry"
)

const outboxBatchSize = 100

// EventPublisher is the broker surface the dispatcher needs.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// OutboxDispatcher polls the transfer outbox and publishes pending events.
type OutboxDispatcher struct {
	db         *pgxpool.Pool
	producer   EventPublisher
	exchange   string
	routingKey string
	interval   time.Duration
}

// NewOutboxDispatcher creates a dispatcher publishing to the given exchange
// and routing key at the given poll interval.
func NewOutboxDispatcher(db *pgxpool.Pool, producer EventPublisher, exchange, routingKey string, interval time.Duration) *OutboxDispatcher {
	return &OutboxDispatcher{
		db:         db,
		producer:   producer,
		exchange:   exchange,
		routingKey: routingKey,
		interval:   interval,
	}
}

// Run polls until the context is cancelled. Errors are logged and retried on
// the next tick; a broker outage delays delivery, it never loses events.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("level=info component=outbox msg=\"dispatcher started\" interval=%s", d.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("level=info component=outbox msg=\"dispatcher stopped\"")
			return
		case <-ticker.C:
			published, err := d.dispatchBatch(ctx)
			if err != nil {
				log.Printf("level=error component=outbox msg=\"dispatch failed\" err=%v", err)
				continue
			}
			if published > 0 {
				log.Printf("level=info component=outbox msg=\"events published\" count=%d", published)
			}
		}
	}
}

// dispatchBatch claims up to outboxBatchSize unpublished events, publishes
// them and marks them published in one transaction.
func (d *OutboxDispatcher) dispatchBatch(ctx context.Context) (int, error) {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning outbox transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, transfer_id, occurred_at
		FROM transfer_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.Query(ctx, query, outboxBatchSize)
	if err != nil {
		return 0, fmt.Errorf("claiming outbox rows: %w", err)
	}

	var events []domain.TransferCompletedEvent
	for rows.Next() {
		var event domain.TransferCompletedEvent
		if err := rows.Scan(&event.EventID, &event.TransferID, &event.OccurredAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning outbox row: %w", err)
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("reading outbox rows: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		if err := d.producer.Publish(ctx, d.exchange, d.routingKey, event); err != nil {
			// Abort the whole batch; the claimed rows stay unpublished and
			// are retried on the next tick.
			return 0, fmt.Errorf("publishing event %s: %w", event.EventID, err)
		}
		ids = append(ids, event.EventID)
	}

	if _, err := tx.Exec(ctx, `UPDATE transfer_outbox SET published_at = NOW() WHERE id = ANY($1)`, ids); err != nil {
		return 0, fmt.Errorf("marking outbox rows published: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing outbox batch: %w", err)
	}
	telemetry.OutboxPublishedTotal.Add(float64(len(events)))
	return len(events), nil
}
