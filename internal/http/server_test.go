// README: Route-level tests over the query surface.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"courier/internal/modules/chat"
	"courier/internal/modules/location"
	"courier/internal/modules/order"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, map[string]string, string, string) error {
	return nil
}

func newTestHandler(t *testing.T) (http.Handler, *order.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	chatSvc := chat.NewService(chat.NewStore(client), nopPublisher{})
	orderSvc := order.NewService(order.NewStore(client), chatSvc, nopPublisher{})
	locationSvc := location.NewService(location.NewStore(client))

	srv := NewServer(ServerDeps{Order: orderSvc, Chat: chatSvc, Location: locationSvc})
	return srv.Routes(), orderSvc
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestReceiveByStatus(t *testing.T) {
	handler, orderSvc := newTestHandler(t)

	err := orderSvc.Apply(context.Background(), order.StatusEvent{
		OrderID:   "o1",
		Status:    order.StatusDelivering,
		UserID:    "u1",
		RiderID:   "r1",
		Timestamp: "2026-01-02 10:00:00",
		Body:      "pizza",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/receive?status=delivering", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("receive = %d body=%s", rec.Code, rec.Body.String())
	}
	var list []order.Projection
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].OrderID != "o1" || list[0].RiderID != "r1" {
		t.Errorf("unexpected payload: %+v", list)
	}

	// Unknown status is an empty list, not an error.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/receive?status=nothing", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty status: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestOrderCountRejectsUnknownRole(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/orderCount?id=u1&role=ADMIN", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestSendChatAccepted(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := strings.NewReader(`{"orderId":"o1","userId":"u1","role":"USER","message":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/send", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Errorf("send chat = %d body=%s", rec.Code, rec.Body.String())
	}
}
