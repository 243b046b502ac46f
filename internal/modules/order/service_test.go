// README: Maintainer tests covering staleness, transitions, terminal cascade, and rider gating.
package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"courier/internal/modules/chat"
	"courier/internal/queue"
)

func newTestService(t *testing.T) (*Service, *chat.Store, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	chatStore := chat.NewStore(client)
	svc := NewService(NewStore(client), chat.NewService(chatStore, nil), nil)
	return svc, chatStore, client
}

func ev(orderID, status, userID, riderID, ts string) StatusEvent {
	return StatusEvent{
		OrderID:   orderID,
		Status:    status,
		UserID:    userID,
		RiderID:   riderID,
		Timestamp: ts,
		Body:      "order " + orderID,
	}
}

func mustApply(t *testing.T, svc *Service, e StatusEvent) {
	t.Helper()
	if err := svc.Apply(context.Background(), e); err != nil {
		t.Fatalf("apply %s/%s: %v", e.OrderID, e.Status, err)
	}
}

func TestApplyCreatesProjection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustApply(t, svc, ev("o1", StatusPending, "u1", DefaultRiderID, "2026-01-02 10:00:00"))

	list, err := svc.ByStatus(ctx, StatusPending)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 projection, got %d", len(list))
	}
	p := list[0]
	if p.OrderID != "o1" || p.Status != StatusPending || p.UserID != "u1" || p.Body != "order o1" {
		t.Errorf("unexpected projection: %+v", p)
	}
	if p.RiderID != "" {
		t.Errorf("rider must not be set before assignment, got %q", p.RiderID)
	}
}

func TestApplyStaleEventIsNoOp(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustApply(t, svc, ev("o1", StatusPending, "u1", DefaultRiderID, "2026-01-02 10:00:00"))
	before, ok, err := svc.store.Score(ctx, StatusPending, "o1")
	if err != nil || !ok {
		t.Fatalf("expected o1 in pending index (ok=%v err=%v)", ok, err)
	}

	// Redelivery with identical status and rider: the later timestamp must
	// not be written; the index entry keeps its original score.
	mustApply(t, svc, ev("o1", StatusPending, "u1", DefaultRiderID, "2026-01-02 11:00:00"))
	after, ok, err := svc.store.Score(ctx, StatusPending, "o1")
	if err != nil || !ok {
		t.Fatalf("expected o1 still in pending index (ok=%v err=%v)", ok, err)
	}
	if before != after {
		t.Errorf("stale event rewrote index score: before=%f after=%f", before, after)
	}
}

func TestNewOrderIsNeverStale(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// The very first event for an order always applies, even with default
	// attribute values all around.
	mustApply(t, svc, ev(DefaultOrderID, DefaultStatus, DefaultUserID, DefaultRiderID, "2026-01-02 10:00:00"))
	list, err := svc.ByStatus(ctx, DefaultStatus)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected degraded event to be indexed, got %d entries", len(list))
	}
}

func TestTransitionMovesMembership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustApply(t, svc, ev("o1", StatusPending, "u1", DefaultRiderID, "2026-01-02 10:00:00"))
	mustApply(t, svc, ev("o1", StatusDelivering, "u1", "r1", "2026-01-02 10:05:00"))

	if _, ok, _ := svc.store.Score(ctx, StatusPending, "o1"); ok {
		t.Error("o1 still indexed under pending after transition")
	}
	if _, ok, _ := svc.store.Score(ctx, StatusDelivering, "o1"); !ok {
		t.Error("o1 not indexed under delivering")
	}
	p, err := svc.store.Projection(ctx, "o1")
	if err != nil || p == nil {
		t.Fatalf("projection: %v %v", p, err)
	}
	if p.RiderID != "r1" {
		t.Errorf("rider = %q, want r1", p.RiderID)
	}
}

func TestExclusiveStatusMembership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	statuses := []string{StatusPending, StatusDelivering, StatusDelivered}
	events := []StatusEvent{
		ev("o1", StatusPending, "u1", DefaultRiderID, "2026-01-02 10:00:00"),
		ev("o1", StatusDelivering, "u1", "r1", "2026-01-02 10:05:00"),
		ev("o1", StatusDelivered, "u1", "r1", "2026-01-02 10:30:00"),
	}
	for _, e := range events {
		mustApply(t, svc, e)
		members := 0
		for _, st := range statuses {
			if _, ok, _ := svc.store.Score(ctx, st, "o1"); ok {
				members++
			}
		}
		if members != 1 {
			t.Fatalf("after %s: o1 is a member of %d status indexes, want exactly 1", e.Status, members)
		}
	}
}

func TestTerminalCascade(t *testing.T) {
	svc, chatStore, client := newTestService(t)
	ctx := context.Background()

	mustApply(t, svc, ev("o1", StatusDelivering, "u1", "r1", "2026-01-02 10:00:00"))
	if err := chatStore.Append(ctx, chat.Entry{OrderID: "o1", UserID: "u1", Role: "USER", Message: "hi", Timestamp: 10}); err != nil {
		t.Fatalf("append chat: %v", err)
	}

	mustApply(t, svc, ev("o1", StatusCompleted, "u1", "r1", "2026-01-02 11:00:00"))

	list, err := svc.ByOrderID(ctx, "o1")
	if err != nil {
		t.Fatalf("by order id: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty result after terminal event, got %d", len(list))
	}
	for _, st := range []string{StatusPending, StatusDelivering, StatusDelivered, StatusCompleted} {
		if _, ok, _ := svc.store.Score(ctx, st, "o1"); ok {
			t.Errorf("o1 still indexed under %s after terminal event", st)
		}
	}
	if n, _ := client.Exists(ctx, "chat:o1").Result(); n != 0 {
		t.Error("chat log survived the terminal event")
	}
}

func TestProjectionExpiryRefreshed(t *testing.T) {
	svc, _, client := newTestService(t)
	ctx := context.Background()

	mustApply(t, svc, ev("o1", StatusDelivering, "u1", "r1", "2026-01-02 10:00:00"))

	// The backing server here has no HEXPIRE, so the store must have
	// recorded the downgrade instead of failing the write.
	if !svc.store.noFieldTTL.Load() {
		t.Fatal("store did not record the field-TTL downgrade")
	}
	keys := []string{
		statusHashKey, bodyHashKey, userHashKey, riderHashKey,
		indexKey(StatusDelivering), allIndexKey,
	}
	for _, key := range keys {
		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			t.Fatalf("ttl %s: %v", key, err)
		}
		if ttl <= 0 {
			t.Errorf("key %s has no expiry (ttl=%s)", key, ttl)
		}
	}
}

func TestRiderGating(t *testing.T) {
	svc, _, client := newTestService(t)
	ctx := context.Background()

	// A pre-assignment status never introduces a rider field, even when the
	// event carries a non-default rider id.
	mustApply(t, svc, ev("o1", StatusPending, "u1", "r9", "2026-01-02 10:00:00"))

	if _, err := client.HGet(ctx, riderHashKey, "o1").Result(); !errors.Is(err, redis.Nil) {
		t.Errorf("rider hash field exists for pre-assignment status (err=%v)", err)
	}
}

func TestBadTimestampLeavesPriorState(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustApply(t, svc, ev("o1", StatusPending, "u1", DefaultRiderID, "2026-01-02 10:00:00"))

	err := svc.Apply(ctx, ev("o1", StatusDelivering, "u1", "r1", "not-a-timestamp"))
	if !errors.Is(err, ErrBadTimestamp) {
		t.Fatalf("expected ErrBadTimestamp, got %v", err)
	}

	// The failed event must not have de-indexed the order.
	if _, ok, _ := svc.store.Score(ctx, StatusPending, "o1"); !ok {
		t.Error("o1 lost its pending membership after a bad-timestamp event")
	}
	p, err := svc.store.Projection(ctx, "o1")
	if err != nil || p == nil {
		t.Fatalf("projection: %v %v", p, err)
	}
	if p.Status != StatusPending {
		t.Errorf("status = %q, want pending", p.Status)
	}
}

func TestHandleMessageAcksBadTimestamp(t *testing.T) {
	svc, _, _ := newTestService(t)

	msg := queue.Message{
		Body: "order o1",
		Attributes: map[string]string{
			"orderId":   "o1",
			"status":    StatusPending,
			"userId":    "u1",
			"timestamp": "garbage",
		},
	}
	// A bad timestamp is recoverable-skip: logged, then acknowledged so the
	// queue does not redeliver it forever.
	if err := svc.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected nil (ack) for bad timestamp, got %v", err)
	}
}

func TestEventFromMessageDefaults(t *testing.T) {
	now := mustParse(t, "2026-01-02 10:00:00")

	got := EventFromMessage(queue.Message{Body: "hello"}, now)
	want := StatusEvent{
		OrderID:   DefaultOrderID,
		Status:    DefaultStatus,
		UserID:    DefaultUserID,
		RiderID:   DefaultRiderID,
		Timestamp: "2026-01-02 10:00:00",
		Body:      "hello",
	}
	if got != want {
		t.Errorf("defaults: got %+v, want %+v", got, want)
	}

	got = EventFromMessage(queue.Message{
		Body: "body",
		Attributes: map[string]string{
			"orderId":   "o1",
			"status":    StatusDelivering,
			"userId":    "u1",
			"riderId":   "r1",
			"timestamp": "2026-01-02 09:00:00",
		},
	}, now)
	if got.OrderID != "o1" || got.Status != StatusDelivering || got.Timestamp != "2026-01-02 09:00:00" {
		t.Errorf("unexpected extraction: %+v", got)
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}
