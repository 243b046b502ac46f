// README: Multi-dimensional read paths over the projection indexes.
package order

import (
	"context"
	"fmt"
	"sort"
)

// ByStatus returns every projection indexed under status, most recent event
// first. Ids whose row turned out incomplete are skipped.
func (s *Service) ByStatus(ctx context.Context, status string) ([]Projection, error) {
	ids, err := s.store.IDsByStatus(ctx, status, true)
	if err != nil {
		return nil, fmt.Errorf("list status %s: %w", status, err)
	}
	return s.buildAll(ctx, ids, nil)
}

// ByOrderID scans the all-orders index in oldest-insertion order and returns
// the projections matching the id. Unknown or purged orders yield an empty
// result, never an error.
func (s *Service) ByOrderID(ctx context.Context, orderID string) ([]Projection, error) {
	ids, err := s.store.IDsInAllIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all index: %w", err)
	}
	out := []Projection{}
	for _, id := range ids {
		if id != orderID {
			continue
		}
		p, err := s.store.Projection(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			// The row's fields TTL-expired but the index member survived on
			// the shared key's expiry; reap it so the scan stays clean.
			if err := s.store.RemoveFromAllIndex(ctx, id); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// ByOrderAndStatus returns the order's projection only when the order is a
// member of that status index. Membership is checked against the sorted set
// first, so a row still present in the hashes but indexed elsewhere never
// leaks into the result.
func (s *Service) ByOrderAndStatus(ctx context.Context, orderID, status string) (*Projection, error) {
	_, ok, err := s.store.Score(ctx, status, orderID)
	if err != nil {
		return nil, fmt.Errorf("score %s/%s: %w", status, orderID, err)
	}
	if !ok {
		return nil, nil
	}
	return s.store.Projection(ctx, orderID)
}

// ByActor fetches each status index in oldest-insertion order, keeps the
// projections whose role field matches actorID, and sorts the merged result
// ascending by order id. The merge sort is deliberate: it replaces the
// single-status recency order with a stable cross-status order.
func (s *Service) ByActor(ctx context.Context, role Role, actorID string, statuses ...string) ([]Projection, error) {
	merged := []Projection{}
	for _, status := range statuses {
		ids, err := s.store.IDsByStatus(ctx, status, false)
		if err != nil {
			return nil, fmt.Errorf("list status %s: %w", status, err)
		}
		matched, err := s.buildAll(ctx, ids, func(p Projection) bool {
			return role.actorID(p) == actorID
		})
		if err != nil {
			return nil, err
		}
		merged = append(merged, matched...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].OrderID < merged[j].OrderID
	})
	return merged, nil
}

// ActiveByActor lists the actor's orders across the in-delivery statuses.
func (s *Service) ActiveByActor(ctx context.Context, role Role, actorID string) ([]Projection, error) {
	return s.ByActor(ctx, role, actorID, activeStatuses...)
}

// CountOrders reports how many open orders the actor has.
func (s *Service) CountOrders(ctx context.Context, role Role, actorID string) (int, error) {
	list, err := s.ByActor(ctx, role, actorID, openStatuses...)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// CountActiveChats reports how many conversations the actor can currently
// hold; one per order in an in-delivery status.
func (s *Service) CountActiveChats(ctx context.Context, role Role, actorID string) (int, error) {
	list, err := s.ActiveByActor(ctx, role, actorID)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// All enumerates every id in the status hash and builds each projection.
// Partially populated rows are treated as incomplete and excluded.
func (s *Service) All(ctx context.Context) ([]Projection, error) {
	ids, err := s.store.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all ids: %w", err)
	}
	return s.buildAll(ctx, ids, nil)
}

// Wipe clears the entire store. Administrative surface only.
func (s *Service) Wipe(ctx context.Context) error {
	return s.store.Wipe(ctx)
}

func (s *Service) buildAll(ctx context.Context, ids []string, keep func(Projection) bool) ([]Projection, error) {
	out := []Projection{}
	for _, id := range ids {
		p, err := s.store.Projection(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if keep != nil && !keep(*p) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}
