/**
 * @description
 * This file contains the HTTP handlers for the transfer service's API
 * endpoints. Handlers parse incoming requests, call the application service
 * and translate domain errors into HTTP status codes. They act as the bridge
 * between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixpago/transfer-service/internal/app"
	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/internal/store"
)

// TransferHandlers holds the application service that handlers will use.
type TransferHandlers struct {
	service app.TransferService
}

// NewTransferHandlers creates a new instance of TransferHandlers.
func NewTransferHandlers(service app.TransferService) *TransferHandlers {
	return &TransferHandlers{service: service}
}

// transferRequest is the body of POST /transfer. The amount arrives as a
// decimal currency value and is converted to cents before it reaches the
// domain.
type transferRequest struct {
	Payer string  `json:"payer"`
	Payee string  `json:"payee"`
	Value float64 `json:"value"`
}

type transferCreatedResponse struct {
	TransferID string `json:"transfer_id"`
}

type transferResponse struct {
	TransferID string `json:"transfer_id"`
	PayerID    string `json:"payer_id"`
	PayeeID    string `json:"payee_id"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// CreateTransferHandler handles POST /transfer.
func (h *TransferHandlers) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payerID, err := uuid.Parse(req.Payer)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid payer ID")
		return
	}
	payeeID, err := uuid.Parse(req.Payee)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid payee ID")
		return
	}
	if req.Value <= 0 {
		h.writeError(w, http.StatusUnprocessableEntity, "Transfer value must be positive")
		return
	}
	amount, err := domain.MoneyFromFloat(req.Value)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid transfer value")
		return
	}

	transferID, err := h.service.PerformTransfer(r.Context(), payerID, payeeID, amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, transferCreatedResponse{TransferID: transferID.String()})
}

// GetTransferHandler handles GET /transfers/{id}.
func (h *TransferHandlers) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid transfer ID")
		return
	}

	transfer, err := h.service.GetTransfer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTransferNotFound) {
			h.writeError(w, http.StatusNotFound, "Transfer not found")
			return
		}
		log.Printf("level=error component=api msg=\"transfer lookup failed\" transfer_id=%s err=%v", id, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to load transfer")
		return
	}

	h.writeJSON(w, http.StatusOK, transferResponse{
		TransferID: transfer.ID.String(),
		PayerID:    transfer.PayerID.String(),
		PayeeID:    transfer.PayeeID.String(),
		Amount:     transfer.Amount.Cents(),
		Status:     string(transfer.Status),
		CreatedAt:  transfer.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// writeDomainError maps orchestration errors onto HTTP status codes.
func (h *TransferHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, domain.ErrNotAllowedPayer):
		h.writeError(w, http.StatusForbidden, "Merchant accounts cannot send money")
	case errors.Is(err, domain.ErrSelfTransferNotAllowed):
		h.writeError(w, http.StatusUnprocessableEntity, "Payer and payee must be different accounts")
	case errors.Is(err, domain.ErrInsufficientBalance):
		h.writeError(w, http.StatusUnprocessableEntity, "Insufficient balance")
	case errors.Is(err, domain.ErrNegativeAmount):
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid transfer value")
	case errors.Is(err, app.ErrTransferNotAuthorized):
		h.writeError(w, http.StatusBadGateway, "Transfer was not authorized")
	case errors.Is(err, app.ErrTransferServiceUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "Transfer service is temporarily unavailable")
	default:
		log.Printf("level=error component=api msg=\"transfer failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to process transfer")
	}
}

func (h *TransferHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *TransferHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
