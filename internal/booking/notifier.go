package booking

import "context"

// Event names a booking state change that collaborators may react to.
type Event string

const (
	EventCreated       Event = "booking.created"
	EventSeriesCreated Event = "booking.series_created"
	EventConfirmed     Event = "booking.confirmed"
	EventCancelled     Event = "booking.cancelled"
	EventEdited        Event = "booking.edited"
	EventCompleted     Event = "booking.completed"
)

// Notifier receives booking events after they are persisted. Delivery is
// best effort: an error is logged and never undoes the transition.
type Notifier interface {
	Notify(ctx context.Context, event Event, b *Booking, actorID string) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event, *Booking, string) error { return nil }
