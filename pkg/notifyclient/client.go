/**
 * @description
 * This package provides a client for the external notification service used
 * to tell a payee that money arrived. The service is flaky by contract, so
 * the only success signal is an exact 204 status; everything else is reported
 * as ErrUnavailable and the caller decides whether to retry.
 */
package notifyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable means the notification service did not confirm delivery.
var ErrUnavailable = errors.New("notification service unavailable")

const requestTimeout = 3 * time.Second

// Client calls the external notification service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the notification service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type notifyRequest struct {
	TransferID string `json:"transfer_id"`
}

// Notify posts a completed-transfer notification. Only a 204 response counts
// as delivered.
func (c *Client) Notify(ctx context.Context, transferID string) error {
	payload, err := json.Marshal(notifyRequest{TransferID: transferID})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
