// Package notify holds booking.Notifier implementations. Delivery to email or
// in-app inboxes lives outside this service; these notifiers record the event
// stream that such consumers follow.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/kanemolly/campus-resource-hub/internal/booking"
)

const timeLayout = "2006-01-02 15:04"

// LogNotifier writes each booking event as a structured log line.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, event booking.Event, b *booking.Booking, actorID string) error {
	fields := []zap.Field{
		zap.String("event", string(event)),
		zap.String("booking_id", b.ID),
		zap.String("resource_id", b.ResourceID),
		zap.String("requester_id", b.RequesterID),
		zap.String("actor_id", actorID),
		zap.String("status", string(b.Status)),
		zap.String("start", b.StartTime.Format(timeLayout)),
		zap.String("end", b.EndTime.Format(timeLayout)),
	}
	if b.CancellationReason != nil {
		fields = append(fields, zap.String("reason", *b.CancellationReason))
	}
	if b.ChangeSummary != nil && event == booking.EventEdited {
		fields = append(fields, zap.String("changes", *b.ChangeSummary))
	}
	n.logger.Info("booking event", fields...)
	return nil
}
