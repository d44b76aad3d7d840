package reconciler

import (
	"context"

	"paradisian/internal/bookings/events"
	"paradisian/pkg/kafka"
)

// EventHandler reconciles the booking named by each consumed event. Decode
// failures are permanent and go straight to the DLQ; repair failures,
// including a room that is still locked, are retried.
func (r *Reconciler) EventHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := events.Decode(msg)
		if err != nil {
			return err
		}

		report, err := r.HandleEvent(ctx, event)
		if err != nil {
			return kafka.NewTransientError("reconcile "+event.BookingID, err)
		}
		if report.Repairs() > 0 {
			r.cfg.Log.Info("Repaired booking after event",
				"event_type", event.Type,
				"booking_id", event.BookingID,
				"report", report,
			)
		}
		return nil
	}
}
