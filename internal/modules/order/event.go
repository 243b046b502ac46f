// README: Status event extraction from queue messages, with degrade-to-default semantics.
package order

import (
	"time"

	"courier/internal/queue"
)

// Defaults substituted for missing or empty message attributes. A malformed
// event is degraded and recorded, never dropped silently and never allowed
// to block the queue.
const (
	DefaultOrderID = "defaultOrderId"
	DefaultStatus  = "defaultStatus"
	DefaultUserID  = "defaultUserId"
	DefaultRiderID = "defaultRiderId"
)

// TimestampLayout is the wire format of status event timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// StatusEvent is the typed view of one status message off the queue.
type StatusEvent struct {
	OrderID   string
	Status    string
	UserID    string
	RiderID   string
	Timestamp string
	Body      string
}

// EventFromMessage extracts a StatusEvent, substituting defaults for any
// absent attribute; now stands in for a missing timestamp.
func EventFromMessage(m queue.Message, now time.Time) StatusEvent {
	return StatusEvent{
		OrderID:   m.Attr("orderId", DefaultOrderID),
		Status:    m.Attr("status", DefaultStatus),
		UserID:    m.Attr("userId", DefaultUserID),
		RiderID:   m.Attr("riderId", DefaultRiderID),
		Timestamp: m.Attr("timestamp", now.UTC().Format(TimestampLayout)),
		Body:      m.Body,
	}
}
