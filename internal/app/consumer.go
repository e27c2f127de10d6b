/**
 * @description
 * This file implements the completion-event consumer running in the notifier
 * process. Delivery from the outbox is at-least-once, so the consumer keeps
 * a dedup record per event ID in Redis and skips events it has already
 * notified for. The dedup mark is written only after the notification
 * succeeded; a crash in between re-delivers the event and retries the
 * notification, never the other way around.
 */

package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/internal/telemetry"
)

const (
	dedupKeyPrefix = "transfer_event:"
	dedupTTL       = 24 * time.Hour
	handleTimeout  = 10 * time.Second
)

// Notifier delivers a completed-transfer notification to the payee.
type Notifier interface {
	Notify(ctx context.Context, transferID string) error
}

// DedupStore remembers which event IDs were already processed.
type DedupStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string, ttl time.Duration) error
}

// RedisDedupStore implements DedupStore on a Redis client.
type RedisDedupStore struct {
	client *redis.Client
}

// NewRedisDedupStore creates a Redis-backed dedup store.
func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{client: client}
}

func (s *RedisDedupStore) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisDedupStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.SetNX(ctx, key, "1", ttl).Err()
}

// NotificationConsumer handles transfer.completed events.
type NotificationConsumer struct {
	notifier Notifier
	dedup    DedupStore
}

// NewNotificationConsumer creates a consumer notifying payees through
// notifier and deduplicating through dedup.
func NewNotificationConsumer(notifier Notifier, dedup DedupStore) *NotificationConsumer {
	return &NotificationConsumer{notifier: notifier, dedup: dedup}
}

// HandleTransferCompleted processes one delivery. Returning true acks the
// message; false re-queues it for another attempt.
func (c *NotificationConsumer) HandleTransferCompleted(body []byte) bool {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	var event domain.TransferCompletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// A malformed body never becomes valid; drop it instead of looping.
		log.Printf("level=error component=notification_consumer msg=\"dropping malformed event\" err=%v", err)
		telemetry.NotificationTotal.WithLabelValues("malformed").Inc()
		return true
	}

	key := dedupKeyPrefix + event.EventID.String()
	seen, err := c.dedup.Seen(ctx, key)
	if err != nil {
		// Dedup is an optimization on top of an idempotent notification;
		// proceed without it rather than stalling the queue.
		log.Printf("level=warn component=notification_consumer msg=\"dedup check failed; proceeding\" event_id=%s err=%v", event.EventID, err)
	}
	if seen {
		log.Printf("level=info component=notification_consumer msg=\"duplicate event skipped\" event_id=%s transfer_id=%s", event.EventID, event.TransferID)
		telemetry.NotificationTotal.WithLabelValues("duplicate").Inc()
		return true
	}

	if err := c.notifier.Notify(ctx, event.TransferID.String()); err != nil {
		log.Printf("level=warn component=notification_consumer msg=\"notification failed; will retry\" event_id=%s transfer_id=%s err=%v", event.EventID, event.TransferID, err)
		telemetry.NotificationTotal.WithLabelValues("failed").Inc()
		return false
	}

	if err := c.dedup.MarkSeen(ctx, key, dedupTTL); err != nil {
		log.Printf("level=warn component=notification_consumer msg=\"dedup mark failed\" event_id=%s err=%v", event.EventID, err)
	}
	log.Printf("level=info component=notification_consumer msg=\"payee notified\" event_id=%s transfer_id=%s", event.EventID, event.TransferID)
	telemetry.NotificationTotal.WithLabelValues("delivered").Inc()
	return true
}
