// README: Chat log maintainer; appends from the queue, serves filtered reads, publishes outbound messages.
package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"courier/internal/queue"
)

// Defaults substituted for missing chat message attributes.
const (
	defaultOrderID = "defaultOrderId"
	defaultUserID  = "defaultUserId"
	defaultRole    = "USER"
)

// EventPublisher sends an outbound queue message; satisfied by queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, body string, attrs map[string]string, groupID, dedupID string) error
}

type Service struct {
	store     *Store
	publisher EventPublisher
	now       func() time.Time
}

func NewService(store *Store, publisher EventPublisher) *Service {
	return &Service{store: store, publisher: publisher, now: time.Now}
}

// HandleMessage appends one chat message off the queue to its conversation
// log. A timestamp attribute that is present but not numeric marks the
// message corrupt: it is logged and acknowledged, not retried.
func (s *Service) HandleMessage(ctx context.Context, msg queue.Message) error {
	ts := msg.Attr("timestamp", strconv.FormatInt(s.now().UnixMilli(), 10))
	timestamp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		log.Printf("dropping chat message timestamp=%q: %v", ts, err)
		return nil
	}

	e := Entry{
		OrderID:   msg.Attr("orderId", defaultOrderID),
		UserID:    msg.Attr("userId", defaultUserID),
		Role:      msg.Attr("role", defaultRole),
		Message:   msg.Body,
		Timestamp: timestamp,
	}
	if err := s.store.Append(ctx, e); err != nil {
		return fmt.Errorf("append chat entry: %w", err)
	}
	log.Printf("chat entry appended orderId=%s role=%s corr=%s", e.OrderID, e.Role, msg.Attr("correlationId", "-"))
	return nil
}

// Messages returns the conversation's entries newer than since, ascending by
// timestamp. The log is already in append order, but append order is not
// trusted as authoritative once entries have been filtered, so the result is
// re-sorted.
func (s *Service) Messages(ctx context.Context, orderID string, since int64) ([]Entry, error) {
	entries, err := s.store.Entries(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp > since {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

// Purge deletes the conversation log. Called when the owning order reaches
// its terminal status.
func (s *Service) Purge(ctx context.Context, orderID string) error {
	return s.store.Purge(ctx, orderID)
}

// Send publishes a chat message keyed for conversation ordering: the order
// id is the ordering key and orderId_millis the deduplication key.
func (s *Service) Send(ctx context.Context, orderID, userID, role, message string) error {
	now := s.now()
	attrs := map[string]string{
		"orderId":   orderID,
		"userId":    userID,
		"role":      role,
		"timestamp": strconv.FormatInt(now.UnixMilli(), 10),
	}
	dedupID := orderID + "_" + strconv.FormatInt(now.UnixMilli(), 10)
	return s.publisher.Publish(ctx, message, attrs, orderID, dedupID)
}
