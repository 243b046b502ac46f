// README: Rider location service; validation plus cache reads/writes.
package location

import (
	"context"
	"errors"
)

var ErrBadRequest = errors.New("invalid location update")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type Update struct {
	RiderID  string
	Position Position
}

func (s *Service) Update(ctx context.Context, u Update) error {
	if u.RiderID == "" {
		return ErrBadRequest
	}
	if u.Position.Latitude == 0 || u.Position.Longitude == 0 {
		return ErrBadRequest
	}
	return s.store.Set(ctx, u.RiderID, u.Position)
}

func (s *Service) Get(ctx context.Context, riderID string) (Position, error) {
	return s.store.Get(ctx, riderID)
}

func (s *Service) All(ctx context.Context) (map[string]Position, error) {
	return s.store.All(ctx)
}
