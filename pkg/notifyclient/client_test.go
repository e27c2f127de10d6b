package notifyclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifyDelivered(t *testing.T) {
	var gotTransferID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			TransferID string `json:"transfer_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		gotTransferID = body.TransferID
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.Notify(context.Background(), "transfer-123"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if gotTransferID != "transfer-123" {
		t.Errorf("transfer_id = %q, want transfer-123", gotTransferID)
	}
}

func TestNotifyNon204IsUnavailable(t *testing.T) {
	// Only a 204 counts as delivered; even a 200 leaves the outcome unknown.
	for _, status := range []int{http.StatusOK, http.StatusAccepted, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(server.URL)
		err := client.Notify(context.Background(), "transfer-123")
		server.Close()

		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("status %d: err = %v, want ErrUnavailable", status, err)
		}
	}
}

func TestNotifyUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	if err := client.Notify(context.Background(), "transfer-123"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
