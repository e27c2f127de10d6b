/**
 * @description
 * This package provides a client for the external transfer authorization
 * service. The authorizer is consulted with a GET request before any balance
 * is touched; it answers with a JSON envelope whose `data.authorization` flag
 * decides whether the transfer may proceed.
 *
 * Two failure modes are distinguished: an explicit denial (a `false` flag or
 * a 403 status) and an unavailable service (transport errors, malformed
 * bodies, any other non-200 status). Callers treat the first as a business
 * rejection and the second as a retryable infrastructure failure.
 */
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotAuthorized means the authorizer explicitly refused the transfer.
	ErrNotAuthorized = errors.New("transfer not authorized")
	// ErrUnavailable means the authorizer could not be reached or answered
	// with something other than a clear verdict.
	ErrUnavailable = errors.New("authorization service unavailable")
)

const requestTimeout = 3 * time.Second

// Client calls the external authorization service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the authorization service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type authorizationResponse struct {
	Data struct {
		Authorization bool `json:"authorization"`
	} `json:"data"`
}

// Authorize asks the external service whether the transfer may proceed.
// It returns nil when authorized, ErrNotAuthorized on an explicit denial and
// ErrUnavailable on any transport or protocol failure.
func (c *Client) Authorize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body authorizationResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
		}
		if !body.Data.Authorization {
			return ErrNotAuthorized
		}
		return nil
	case resp.StatusCode == http.StatusForbidden:
		// 403 is the authorizer's denial signal. Every other non-200 status
		// leaves the verdict unknown.
		return ErrNotAuthorized
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}
