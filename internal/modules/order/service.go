// README: Order index maintainer; applies status events to the projection store.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"courier/internal/queue"
)

// ChatPurger deletes an order's chat log; satisfied by the chat service.
type ChatPurger interface {
	Purge(ctx context.Context, orderID string) error
}

// EventPublisher sends an outbound queue message; satisfied by queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, body string, attrs map[string]string, groupID, dedupID string) error
}

// ErrBadTimestamp marks an event whose timestamp cannot be parsed. The event
// is dropped after logging; the order's prior state stays untouched rather
// than being partially overwritten.
var ErrBadTimestamp = errors.New("unparsable event timestamp")

type Service struct {
	store     *Store
	chats     ChatPurger
	publisher EventPublisher
	now       func() time.Time
}

func NewService(store *Store, chats ChatPurger, publisher EventPublisher) *Service {
	return &Service{store: store, chats: chats, publisher: publisher, now: time.Now}
}

// HandleMessage adapts the consumer's message callback onto Apply. A bad
// timestamp is logged and acknowledged; store failures propagate so the
// message stays queued for redelivery.
func (s *Service) HandleMessage(ctx context.Context, msg queue.Message) error {
	ev := EventFromMessage(msg, s.now())
	log.Printf("status event orderId=%s status=%s userId=%s riderId=%s corr=%s",
		ev.OrderID, ev.Status, ev.UserID, ev.RiderID, msg.Attr("correlationId", "-"))

	err := s.Apply(ctx, ev)
	if errors.Is(err, ErrBadTimestamp) {
		log.Printf("dropping event orderId=%s timestamp=%q: %v", ev.OrderID, ev.Timestamp, err)
		return nil
	}
	return err
}

// Apply runs one status event against the projection store.
//
// The queue delivers events for one order in publish order, to one worker at
// a time; this sequence is not safe under concurrent application for the
// same order id.
func (s *Service) Apply(ctx context.Context, ev StatusEvent) error {
	cur, err := s.store.CurrentState(ctx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("read current state: %w", err)
	}

	// A redelivered, already-applied event matches on both status and rider
	// and is absorbed as a no-op. Pre-assignment statuses store no rider
	// field, so an absent value compares as the documented default. A
	// never-seen order is never stale.
	storedRider := cur.RiderID
	if storedRider == "" {
		storedRider = DefaultRiderID
	}
	if cur.Exists && ev.Status == cur.Status && ev.RiderID == storedRider {
		log.Printf("stale event orderId=%s status=%s", ev.OrderID, ev.Status)
		return nil
	}

	if ev.Status == StatusCompleted {
		if err := s.chats.Purge(ctx, ev.OrderID); err != nil {
			return fmt.Errorf("purge chat log: %w", err)
		}
		if err := s.store.DeleteProjection(ctx, ev.OrderID, cur.Status); err != nil {
			return fmt.Errorf("delete projection: %w", err)
		}
		log.Printf("projection deleted orderId=%s", ev.OrderID)
		return nil
	}

	// Parsed before any mutation: a bad timestamp must leave the order's
	// prior state untouched, not de-indexed halfway.
	score, err := parseScore(ev.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadTimestamp, ev.Timestamp)
	}

	if cur.Exists {
		if err := s.store.ClearStatus(ctx, ev.OrderID, cur.Status); err != nil {
			return fmt.Errorf("clear status %s: %w", cur.Status, err)
		}
	}

	p := Projection{
		OrderID: ev.OrderID,
		Status:  ev.Status,
		UserID:  ev.UserID,
		RiderID: ev.RiderID,
		Body:    ev.Body,
	}
	if err := s.store.WriteProjection(ctx, p, score, riderAssigned(ev.Status)); err != nil {
		return fmt.Errorf("write projection: %w", err)
	}
	return nil
}

// SendStatusUpdate publishes a status event with the order id as ordering
// key and orderId_millis as deduplication key. An empty rider id is sent as
// the documented default.
func (s *Service) SendStatusUpdate(ctx context.Context, orderID, status, userID, riderID, message string) error {
	if riderID == "" {
		riderID = DefaultRiderID
	}
	now := s.now()
	attrs := map[string]string{
		"orderId":   orderID,
		"status":    status,
		"userId":    userID,
		"riderId":   riderID,
		"timestamp": now.UTC().Format(TimestampLayout),
	}
	dedupID := orderID + "_" + strconv.FormatInt(now.UnixMilli(), 10)
	return s.publisher.Publish(ctx, message, attrs, orderID, dedupID)
}

func parseScore(timestamp string) (float64, error) {
	t, err := time.ParseInLocation(TimestampLayout, timestamp, time.UTC)
	if err != nil {
		return 0, err
	}
	return float64(t.Unix()), nil
}
