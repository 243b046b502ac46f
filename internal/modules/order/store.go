// README: Projection repository backed by Redis hashes and per-status sorted sets.
package order

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage layout: four parallel hashes keyed by order id (one per attribute)
// form the denormalized row; one sorted set per status label scored by event
// timestamp holds index membership; a designated "all" index spans statuses.
// Nothing above this type touches these keys directly.
const (
	statusHashKey = "orders:status"
	bodyHashKey   = "orders:body"
	userHashKey   = "orders:user"
	riderHashKey  = "orders:rider"

	indexKeyPrefix = "orders:index:"
	allIndexKey    = "orders:index:all"

	// projectionTTL bounds how long an abandoned projection survives without
	// a terminal event. Refreshed on every successful write.
	projectionTTL = 24 * time.Hour
)

var attributeHashKeys = []string{statusHashKey, bodyHashKey, userHashKey, riderHashKey}

type Store struct {
	redis *redis.Client
	// noFieldTTL flips on when the server rejects HEXPIRE; expiry then
	// degrades to whole-key EXPIRE on the attribute hashes.
	noFieldTTL atomic.Bool
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// State is the slice of a projection the maintainer needs for its staleness
// and transition decisions. Exists is false for a never-seen order.
type State struct {
	Status  string
	RiderID string
	Exists  bool
}

func (s *Store) CurrentState(ctx context.Context, orderID string) (State, error) {
	status, ok, err := s.hget(ctx, statusHashKey, orderID)
	if err != nil {
		return State{}, err
	}
	rider, _, err := s.hget(ctx, riderHashKey, orderID)
	if err != nil {
		return State{}, err
	}
	return State{Status: status, RiderID: rider, Exists: ok}, nil
}

// ClearStatus removes the order from its current status index and drops the
// status and rider fields ahead of a re-index under a new status.
func (s *Store) ClearStatus(ctx context.Context, orderID, status string) error {
	pipe := s.redis.Pipeline()
	pipe.ZRem(ctx, indexKey(status), orderID)
	pipe.HDel(ctx, statusHashKey, orderID)
	pipe.HDel(ctx, riderHashKey, orderID)
	_, err := pipe.Exec(ctx)
	return err
}

// WriteProjection indexes the order under p.Status with the given score,
// writes the attribute fields, and refreshes every expiry. The rider field
// is written only when withRider is set; otherwise whatever rider value is
// already stored stays untouched.
func (s *Store) WriteProjection(ctx context.Context, p Projection, score float64, withRider bool) error {
	pipe := s.redis.Pipeline()
	pipe.ZAdd(ctx, indexKey(p.Status), redis.Z{Score: score, Member: p.OrderID})
	pipe.ZAdd(ctx, allIndexKey, redis.Z{Score: score, Member: p.OrderID})
	pipe.HSet(ctx, statusHashKey, p.OrderID, p.Status)
	pipe.HSet(ctx, bodyHashKey, p.OrderID, p.Body)
	pipe.HSet(ctx, userHashKey, p.OrderID, p.UserID)
	if withRider {
		pipe.HSet(ctx, riderHashKey, p.OrderID, p.RiderID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return s.refreshExpiry(ctx, p.OrderID, p.Status)
}

// refreshExpiry renews the projection TTLs: one per attribute field via
// HEXPIRE, plus whole-key expiry on the two index sets. Servers without
// HEXPIRE (pre 7.4) get whole-key expiry on the attribute hashes instead;
// the downgrade sticks for the life of the store. Under the fallback an
// abandoned projection's fields survive as long as any order keeps
// refreshing the shared hashes.
func (s *Store) refreshExpiry(ctx context.Context, orderID, status string) error {
	if !s.noFieldTTL.Load() {
		pipe := s.redis.Pipeline()
		for _, key := range attributeHashKeys {
			pipe.HExpire(ctx, key, projectionTTL, orderID)
		}
		pipe.Expire(ctx, indexKey(status), projectionTTL)
		pipe.Expire(ctx, allIndexKey, projectionTTL)
		_, err := pipe.Exec(ctx)
		if err == nil {
			return nil
		}
		if !isUnknownCommand(err) {
			return err
		}
		s.noFieldTTL.Store(true)
	}
	pipe := s.redis.Pipeline()
	for _, key := range attributeHashKeys {
		pipe.Expire(ctx, key, projectionTTL)
	}
	pipe.Expire(ctx, indexKey(status), projectionTTL)
	pipe.Expire(ctx, allIndexKey, projectionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func isUnknownCommand(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unknown command")
}

// DeleteProjection removes every trace of the order: all four attribute
// fields plus index membership under currentStatus and in the all index.
func (s *Store) DeleteProjection(ctx context.Context, orderID, currentStatus string) error {
	pipe := s.redis.Pipeline()
	pipe.HDel(ctx, statusHashKey, orderID)
	pipe.HDel(ctx, bodyHashKey, orderID)
	pipe.HDel(ctx, userHashKey, orderID)
	pipe.HDel(ctx, riderHashKey, orderID)
	if currentStatus != "" {
		pipe.ZRem(ctx, indexKey(currentStatus), orderID)
	}
	pipe.ZRem(ctx, allIndexKey, orderID)
	_, err := pipe.Exec(ctx)
	return err
}

// Projection rebuilds the denormalized row for an order. It returns nil when
// status, body, or user is missing: a partially populated row is treated as
// incomplete, not served. A missing rider alone does not disqualify.
func (s *Store) Projection(ctx context.Context, orderID string) (*Projection, error) {
	status, ok, err := s.hget(ctx, statusHashKey, orderID)
	if err != nil || !ok {
		return nil, err
	}
	body, ok, err := s.hget(ctx, bodyHashKey, orderID)
	if err != nil || !ok {
		return nil, err
	}
	user, ok, err := s.hget(ctx, userHashKey, orderID)
	if err != nil || !ok {
		return nil, err
	}
	rider, _, err := s.hget(ctx, riderHashKey, orderID)
	if err != nil {
		return nil, err
	}
	return &Projection{
		OrderID: orderID,
		Status:  status,
		UserID:  user,
		RiderID: rider,
		Body:    body,
	}, nil
}

// IDsByStatus lists the members of one status index. recentFirst reverses
// the score order (newest event first); otherwise oldest insertion first.
func (s *Store) IDsByStatus(ctx context.Context, status string, recentFirst bool) ([]string, error) {
	if recentFirst {
		return s.redis.ZRevRange(ctx, indexKey(status), 0, -1).Result()
	}
	return s.redis.ZRange(ctx, indexKey(status), 0, -1).Result()
}

// Score reports whether the order is a member of the status index.
func (s *Store) Score(ctx context.Context, status, orderID string) (float64, bool, error) {
	score, err := s.redis.ZScore(ctx, indexKey(status), orderID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// AllIDs enumerates every order id present in the status hash.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	return s.redis.HKeys(ctx, statusHashKey).Result()
}

// RemoveFromAllIndex reaps one member from the all-orders index.
func (s *Store) RemoveFromAllIndex(ctx context.Context, orderID string) error {
	return s.redis.ZRem(ctx, allIndexKey, orderID).Err()
}

// IDsInAllIndex lists the designated all-orders index, oldest first.
func (s *Store) IDsInAllIndex(ctx context.Context) ([]string, error) {
	return s.redis.ZRange(ctx, allIndexKey, 0, -1).Result()
}

// Wipe drops the whole database. Administrative use only.
func (s *Store) Wipe(ctx context.Context) error {
	return s.redis.FlushDB(ctx).Err()
}

func (s *Store) hget(ctx context.Context, key, field string) (string, bool, error) {
	val, err := s.redis.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func indexKey(status string) string {
	return indexKeyPrefix + status
}
