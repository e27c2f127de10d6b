package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/pkg/notifyclient"
)

type stubNotifier struct {
	err   error
	calls []string
}

func (n *stubNotifier) Notify(ctx context.Context, transferID string) error {
	n.calls = append(n.calls, transferID)
	return n.err
}

type memoryDedupStore struct {
	seen     map[string]bool
	seenErr  error
	markErr  error
	markedAt []string
}

func newMemoryDedupStore() *memoryDedupStore {
	return &memoryDedupStore{seen: make(map[string]bool)}
}

func (s *memoryDedupStore) Seen(ctx context.Context, key string) (bool, error) {
	if s.seenErr != nil {
		return false, s.seenErr
	}
	return s.seen[key], nil
}

func (s *memoryDedupStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.seen[key] = true
	s.markedAt = append(s.markedAt, key)
	return nil
}

func eventBody(t *testing.T) ([]byte, domain.TransferCompletedEvent) {
	t.Helper()
	event, err := domain.NewTransferCompletedEvent(uuid.New())
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	return body, event
}

func TestHandleTransferCompletedNotifiesAndAcks(t *testing.T) {
	notifier := &stubNotifier{}
	dedup := newMemoryDedupStore()
	consumer := NewNotificationConsumer(notifier, dedup)
	body, event := eventBody(t)

	if !consumer.HandleTransferCompleted(body) {
		t.Fatal("expected ack on successful notification")
	}

	if len(notifier.calls) != 1 || notifier.calls[0] != event.TransferID.String() {
		t.Errorf("notifier calls = %v, want one call for %s", notifier.calls, event.TransferID)
	}
	if !dedup.seen[dedupKeyPrefix+event.EventID.String()] {
		t.Error("event was not marked as seen after delivery")
	}
}

func TestHandleTransferCompletedSkipsDuplicate(t *testing.T) {
	notifier := &stubNotifier{}
	dedup := newMemoryDedupStore()
	consumer := NewNotificationConsumer(notifier, dedup)
	body, _ := eventBody(t)

	if !consumer.HandleTransferCompleted(body) {
		t.Fatal("expected ack on first delivery")
	}
	if !consumer.HandleTransferCompleted(body) {
		t.Fatal("expected ack on duplicate delivery")
	}

	if len(notifier.calls) != 1 {
		t.Errorf("notifier calls = %d, want exactly 1 despite redelivery", len(notifier.calls))
	}
}

func TestHandleTransferCompletedRequeuesOnNotificationFailure(t *testing.T) {
	notifier := &stubNotifier{err: notifyclient.ErrUnavailable}
	dedup := newMemoryDedupStore()
	consumer := NewNotificationConsumer(notifier, dedup)
	body, event := eventBody(t)

	if consumer.HandleTransferCompleted(body) {
		t.Fatal("expected nack when the notification service is unavailable")
	}
	if dedup.seen[dedupKeyPrefix+event.EventID.String()] {
		t.Error("failed delivery must not be marked as seen")
	}
}

func TestHandleTransferCompletedDropsMalformedBody(t *testing.T) {
	notifier := &stubNotifier{}
	consumer := NewNotificationConsumer(notifier, newMemoryDedupStore())

	if !consumer.HandleTransferCompleted([]byte("not json")) {
		t.Fatal("malformed bodies must be acked, not re-queued forever")
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifier calls = %d, want 0", len(notifier.calls))
	}
}

func TestHandleTransferCompletedProceedsWhenDedupIsDown(t *testing.T) {
	notifier := &stubNotifier{}
	dedup := newMemoryDedupStore()
	dedup.seenErr = errors.New("redis down")
	dedup.markErr = errors.New("redis down")
	consumer := NewNotificationConsumer(notifier, dedup)
	body, _ := eventBody(t)

	if !consumer.HandleTransferCompleted(body) {
		t.Fatal("expected ack when only the dedup store fails")
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(notifier.calls))
	}
}
