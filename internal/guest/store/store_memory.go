package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"convene/internal/guest/models"
	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// InMemoryStore implements Store for tests and development. It mirrors the
// postgres semantics exactly, including the conditional check-in update.
type InMemoryStore struct {
	mu     sync.RWMutex
	guests map[domain.GuestID]*models.Guest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{guests: make(map[domain.GuestID]*models.Guest)}
}

func (s *InMemoryStore) Insert(_ context.Context, g *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.guests {
		if existing.EventID == g.EventID && existing.Phone == g.Phone {
			return sentinel.ErrConflict
		}
	}
	s.guests[g.ID] = cloneGuest(g)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, guestID domain.GuestID) (*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guests[guestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneGuest(g), nil
}

func (s *InMemoryStore) FindBatch(_ context.Context, guestIDs []domain.GuestID) ([]*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Guest, 0, len(guestIDs))
	for _, id := range guestIDs {
		if g, ok := s.guests[id]; ok {
			result = append(result, cloneGuest(g))
		}
	}
	return result, nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter, page models.Page) ([]*models.Guest, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Guest
	for _, g := range s.guests {
		if filter.Matches(g) {
			matched = append(matched, cloneGuest(g))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
	})

	total := len(matched)
	if page.Offset >= total {
		return nil, total, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return matched, total, nil
}

func (s *InMemoryStore) Update(_ context.Context, g *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guests[g.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.guests[g.ID] = cloneGuest(g)
	return nil
}

func (s *InMemoryStore) CheckIn(_ context.Context, guestID domain.GuestID, by domain.ActorID, at time.Time, notes string) (*models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[guestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if g.CheckedIn {
		return nil, sentinel.ErrInvalidState
	}
	g.CheckedIn = true
	g.Status = models.StatusCheckedIn
	g.CheckedInBy = &by
	checkedAt := at
	g.CheckedInAt = &checkedAt
	g.CheckInNotes = notes
	g.UpdatedAt = at
	return cloneGuest(g), nil
}

func (s *InMemoryStore) Delete(_ context.Context, guestID domain.GuestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[guestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if g.CheckedIn {
		return sentinel.ErrInvalidState
	}
	delete(s.guests, guestID)
	return nil
}

func (s *InMemoryStore) Stats(_ context.Context, filter models.Filter) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats models.Stats
	for _, g := range s.guests {
		if !filter.Matches(g) {
			continue
		}
		stats.Total++
		if g.CheckedIn {
			stats.CheckedIn++
			if g.Transport == domain.TransportBus {
				stats.Bus++
			}
		}
	}
	return stats, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context, filter models.Filter) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, g := range s.guests {
		if filter.Matches(g) {
			counts[g.Status]++
		}
	}
	return counts, nil
}

func (s *InMemoryStore) CountByDay(_ context.Context, filter models.Filter) ([]models.DayCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDay := make(map[time.Time]int)
	for _, g := range s.guests {
		if filter.Matches(g) {
			day := g.RegisteredAt.UTC().Truncate(24 * time.Hour)
			byDay[day]++
		}
	}
	result := make([]models.DayCount, 0, len(byDay))
	for day, count := range byDay {
		result = append(result, models.DayCount{Day: day, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.Before(result[j].Day) })
	return result, nil
}

func (s *InMemoryStore) CountByWorker(_ context.Context, filter models.Filter) ([]models.WorkerCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byWorker := make(map[domain.ActorID]*models.WorkerCount)
	for _, g := range s.guests {
		if !filter.Matches(g) {
			continue
		}
		wc, ok := byWorker[g.RegisteredBy]
		if !ok {
			wc = &models.WorkerCount{WorkerID: g.RegisteredBy}
			byWorker[g.RegisteredBy] = wc
		}
		wc.Total++
		if g.CheckedIn {
			wc.CheckedIn++
		}
	}
	result := make([]models.WorkerCount, 0, len(byWorker))
	for _, wc := range byWorker {
		result = append(result, *wc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Total > result[j].Total })
	return result, nil
}

func (s *InMemoryStore) CountByEvent(_ context.Context, filter models.Filter) ([]models.EventCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byEvent := make(map[domain.EventID]*models.EventCount)
	for _, g := range s.guests {
		if !filter.Matches(g) {
			continue
		}
		ec, ok := byEvent[g.EventID]
		if !ok {
			ec = &models.EventCount{EventID: g.EventID}
			byEvent[g.EventID] = ec
		}
		ec.Total++
		if g.CheckedIn {
			ec.CheckedIn++
		}
		if g.Transport == domain.TransportBus {
			ec.Bus++
		}
	}
	result := make([]models.EventCount, 0, len(byEvent))
	for _, ec := range byEvent {
		result = append(result, *ec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Total > result[j].Total })
	return result, nil
}

func (s *InMemoryStore) CountForWorker(_ context.Context, workerID domain.ActorID) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var registered, checkedIn int
	for _, g := range s.guests {
		if g.RegisteredBy != workerID {
			continue
		}
		registered++
		if g.CheckedIn {
			checkedIn++
		}
	}
	return registered, checkedIn, nil
}

func cloneGuest(g *models.Guest) *models.Guest {
	copied := *g
	if g.CheckedInBy != nil {
		by := *g.CheckedInBy
		copied.CheckedInBy = &by
	}
	if g.CheckedInAt != nil {
		at := *g.CheckedInAt
		copied.CheckedInAt = &at
	}
	return &copied
}
