package sagas

import (
	"context"
	"fmt"

	"bookings/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
)

type BookingOrchestrator interface {
	ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error)
	ReleaseBooking(ctx context.Context, bookingID uuid.UUID, reason string) (entities.Booking, error)
}

type IdempotencyLedger interface {
	MarkProcessed(ctx context.Context, eventID, topic string) (bool, error)
}

// PaymentSaga drives a booking to its terminal state from payment outcomes:
// hold -> awaiting payment -> confirmed or compensated. The compensating
// transaction is the system release path; compensation failures are logged
// and left to the reconciliation auditor.
type PaymentSaga struct {
	orchestrator BookingOrchestrator
	ledger       IdempotencyLedger
}

func NewPaymentSaga(orchestrator BookingOrchestrator, ledger IdempotencyLedger) PaymentSaga {
	if orchestrator == nil {
		panic("missing orchestrator")
	}
	if ledger == nil {
		panic("missing idempotency ledger")
	}
	return PaymentSaga{
		orchestrator: orchestrator,
		ledger:       ledger,
	}
}

func (s PaymentSaga) OnPaymentCompleted(ctx context.Context, event *entities.PaymentCompleted_v1) error {
	fresh, err := s.ledger.MarkProcessed(ctx, event.Header.ID, event.Topic())
	if err != nil {
		return err
	}
	if !fresh {
		log.FromContext(ctx).WithField("event_id", event.Header.ID).Info("Skipping already processed payment event")
		return nil
	}

	_, err = s.orchestrator.ConfirmBooking(ctx, event.BookingID, event.UserID)
	if err != nil {
		// The hold may have expired while payment was in flight. The money
		// is taken but the seats are gone; compensate instead of failing.
		s.compensate(ctx, event.BookingID, fmt.Sprintf("confirmation failed after payment: %v", err))
	}

	return nil
}

func (s PaymentSaga) OnPaymentFailed(ctx context.Context, event *entities.PaymentFailed_v1) error {
	fresh, err := s.ledger.MarkProcessed(ctx, event.Header.ID, event.Topic())
	if err != nil {
		return err
	}
	if !fresh {
		log.FromContext(ctx).WithField("event_id", event.Header.ID).Info("Skipping already processed payment event")
		return nil
	}

	s.compensate(ctx, event.BookingID, "payment failed")
	return nil
}

func (s PaymentSaga) OnPaymentRefunded(ctx context.Context, event *entities.PaymentRefunded_v1) error {
	fresh, err := s.ledger.MarkProcessed(ctx, event.Header.ID, event.Topic())
	if err != nil {
		return err
	}
	if !fresh {
		log.FromContext(ctx).WithField("event_id", event.Header.ID).Info("Skipping already processed payment event")
		return nil
	}

	s.compensate(ctx, event.BookingID, "payment refunded")
	return nil
}

// compensate swallows every error: it runs inside an event handler with no
// synchronous caller to report to, and the reconciliation auditor is the
// backstop for anything missed here.
func (s PaymentSaga) compensate(ctx context.Context, bookingID uuid.UUID, reason string) {
	logger := log.FromContext(ctx).
		WithField("booking_id", bookingID).
		WithField("reason", reason)

	logger.Info("Compensating booking")

	if _, err := s.orchestrator.ReleaseBooking(ctx, bookingID, reason); err != nil {
		logger.Errorf("compensation failed: %v", err)
	}
}
