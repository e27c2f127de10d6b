/**
 * @description
 * This file wraps the transfer orchestrator with tracing, metrics and
 * structured logs. The decorator implements the same TransferService
 * interface as the orchestrator, so the HTTP layer never knows whether it
 * talks to the bare service or the observed one.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/internal/store"
	"github.com/pixpago/transfer-service/internal/telemetry"
)

const tracerName = "transfer-service"

// ObservedService decorates a TransferService with spans, metrics and logs.
type ObservedService struct {
	inner  TransferService
	tracer trace.Tracer
}

// NewObservedService wraps inner with observability instrumentation.
func NewObservedService(inner TransferService) *ObservedService {
	return &ObservedService{
		inner:  inner,
		tracer: otel.Tracer(tracerName),
	}
}

// PerformTransfer delegates to the wrapped service inside a span and records
// the outcome.
func (o *ObservedService) PerformTransfer(ctx context.Context, payerID, payeeID uuid.UUID, amount domain.Money) (uuid.UUID, error) {
	ctx, span := o.tracer.Start(ctx, "transfer.process", trace.WithAttributes(
		attribute.String("app.payer_id", payerID.String()),
		attribute.Int64("app.amount", amount.Cents()),
	))
	defer span.End()

	start := time.Now()
	transferID, err := o.inner.PerformTransfer(ctx, payerID, payeeID, amount)
	elapsed := time.Since(start)

	telemetry.TransferDuration.Observe(elapsed.Seconds())
	if err != nil {
		telemetry.TransferTotal.WithLabelValues("failed").Inc()
		telemetry.TransferErrors.WithLabelValues(errorReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("level=warn component=transfer_service msg=\"transfer rejected\" payer_id=%s payee_id=%s amount_cents=%d duration_ms=%d err=%v",
			payerID, payeeID, amount.Cents(), elapsed.Milliseconds(), err)
		return uuid.Nil, err
	}

	telemetry.TransferTotal.WithLabelValues("completed").Inc()
	span.SetAttributes(attribute.String("app.transfer_id", transferID.String()))
	log.Printf("level=info component=transfer_service msg=\"transfer completed\" transfer_id=%s payer_id=%s payee_id=%s amount_cents=%d duration_ms=%d",
		transferID, payerID, payeeID, amount.Cents(), elapsed.Milliseconds())
	return transferID, nil
}

// errorReason buckets an orchestration error into a low-cardinality metric
// label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrNotAllowedPayer):
		return "payer_not_allowed"
	case errors.Is(err, domain.ErrSelfTransferNotAllowed):
		return "self_transfer"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrTransferNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrTransferServiceUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

// GetTransfer delegates to the wrapped service.
func (o *ObservedService) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	ctx, span := o.tracer.Start(ctx, "transfer.get", trace.WithAttributes(
		attribute.String("app.transfer_id", id.String()),
	))
	defer span.End()

	transfer, err := o.inner.GetTransfer(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return transfer, err
}
