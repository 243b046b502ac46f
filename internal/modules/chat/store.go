// README: Chat log store backed by Redis lists, one key per conversation.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatKeyPrefix = "chat:"
	// retention runs from the last write; conversations resolve well within
	// this window or are purged by the owning order's terminal event.
	retention = 7 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Append pushes the entry to the tail of the conversation log and refreshes
// the log's retention window.
func (s *Store) Append(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	key := chatKey(e.OrderID)
	pipe := s.redis.Pipeline()
	pipe.RPush(ctx, key, raw)
	pipe.Expire(ctx, key, retention)
	_, err = pipe.Exec(ctx)
	return err
}

// Entries reads the whole log in append order. A corrupt serialized entry is
// logged and dropped; it never fails the read.
func (s *Store) Entries(ctx context.Context, orderID string) ([]Entry, error) {
	raws, err := s.redis.LRange(ctx, chatKey(orderID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat log: %w", err)
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Printf("dropping corrupt chat entry orderId=%s: %v", orderID, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Purge deletes the whole conversation log.
func (s *Store) Purge(ctx context.Context, orderID string) error {
	return s.redis.Del(ctx, chatKey(orderID)).Err()
}

func chatKey(orderID string) string {
	return chatKeyPrefix + orderID
}
