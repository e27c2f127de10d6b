/**
 * @description
 * This file defines the completion event emitted once per successfully
 * completed transfer. The event carries its own identifier so that consumers
 * receiving it more than once (at-least-once delivery) can deduplicate.
 */

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransferCompletedEvent signals that a transfer committed and downstream
// notification should occur.
type TransferCompletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	TransferID uuid.UUID `json:"transfer_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTransferCompletedEvent creates an event for a completed transfer.
func NewTransferCompletedEvent(transferID uuid.UUID) (TransferCompletedEvent, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return TransferCompletedEvent{}, fmt.Errorf("generating event id: %w", err)
	}
	return TransferCompletedEvent{
		EventID:    id,
		TransferID: transferID,
		OccurredAt: time.Now().UTC(),
	}, nil
}
