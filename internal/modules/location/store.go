// README: Rider location cache; single string key per rider, no index logic.
package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	locationKeyPrefix = "courier:location:"
	locationTTL       = 24 * time.Hour
)

var ErrNotFound = errors.New("location not found")

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Set(ctx context.Context, riderID string, pos Position) error {
	val := formatPosition(pos)
	return s.redis.Set(ctx, locationKey(riderID), val, locationTTL).Err()
}

func (s *Store) Get(ctx context.Context, riderID string) (Position, error) {
	val, err := s.redis.Get(ctx, locationKey(riderID)).Result()
	if errors.Is(err, redis.Nil) {
		return Position{}, ErrNotFound
	}
	if err != nil {
		return Position{}, err
	}
	return parsePosition(val)
}

// All returns every cached rider position keyed by rider id. Entries with
// malformed stored data are skipped.
func (s *Store) All(ctx context.Context) (map[string]Position, error) {
	keys, err := s.redis.Keys(ctx, locationKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Position, len(keys))
	for _, key := range keys {
		val, err := s.redis.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pos, err := parsePosition(val)
		if err != nil {
			continue
		}
		out[strings.TrimPrefix(key, locationKeyPrefix)] = pos
	}
	return out, nil
}

func locationKey(riderID string) string {
	return locationKeyPrefix + riderID
}

func formatPosition(pos Position) string {
	return strconv.FormatFloat(pos.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(pos.Longitude, 'f', -1, 64)
}

func parsePosition(val string) (Position, error) {
	parts := strings.Split(val, ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("invalid location data %q", val)
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return Position{Latitude: lat, Longitude: lng}, nil
}
