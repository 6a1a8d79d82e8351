package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a Repository kept in process memory. It backs the
// service and handler tests and honours the same locking contract as the
// Postgres implementation through a mutex per resource.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// FailWith, when set, is returned by every read so callers' error paths can be exercised.
	FailWith error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bookings: make(map[string]*Booking),
		locks:    make(map[string]*sync.Mutex),
	}
}

func clone(b *Booking) *Booking {
	c := *b
	return &c
}

func (m *MemoryRepository) Create(_ context.Context, b *Booking) error {
	if !b.StartTime.Before(b.EndTime) {
		return ErrInvalidTimeRange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.NewString()
	m.bookings[b.ID] = clone(b)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (m *MemoryRepository) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	if m.FailWith != nil {
		return nil, 0, m.FailWith
	}
	all := m.filter(func(b *Booking) bool {
		switch {
		case filter.RequesterID != "" && b.RequesterID != filter.RequesterID:
			return false
		case filter.ResourceID != "" && b.ResourceID != filter.ResourceID:
			return false
		case filter.Status != "" && string(b.Status) != filter.Status:
			return false
		case filter.ParentID != "" && b.ID != filter.ParentID && (b.ParentBookingID == nil || *b.ParentBookingID != filter.ParentID):
			return false
		case filter.StartTime != nil && !b.EndTime.After(*filter.StartTime):
			return false
		case filter.EndTime != nil && !b.StartTime.Before(*filter.EndTime):
			return false
		}
		return true
	})

	if filter.SortOrder == "desc" || filter.SortOrder == "DESC" {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}

	total := len(all)
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	from := (filter.Page - 1) * filter.PageSize
	if from >= total {
		return nil, total, nil
	}
	to := min(from+filter.PageSize, total)
	return all[from:to], total, nil
}

func (m *MemoryRepository) Update(_ context.Context, b *Booking) error {
	if !b.StartTime.Before(b.EndTime) {
		return ErrInvalidTimeRange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	m.bookings[b.ID] = clone(b)
	return nil
}

func (m *MemoryRepository) FindConfirmed(_ context.Context, resourceID string, start, end time.Time, excludeID string) ([]*Booking, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(b *Booking) bool {
		if b.ResourceID != resourceID || b.Status != StatusConfirmed || b.ID == excludeID {
			return false
		}
		if !end.IsZero() && !b.StartTime.Before(end) {
			return false
		}
		if !start.IsZero() && !b.EndTime.After(start) {
			return false
		}
		return true
	}), nil
}

func (m *MemoryRepository) ListExpired(_ context.Context, before time.Time) ([]*Booking, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(b *Booking) bool {
		return !b.Status.IsTerminal() && b.EndTime.Before(before)
	}), nil
}

func (m *MemoryRepository) ListEndingBetween(_ context.Context, from, to time.Time) ([]*Booking, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(b *Booking) bool {
		return !b.Status.IsTerminal() && !b.EndTime.Before(from) && !b.EndTime.After(to)
	}), nil
}

func (m *MemoryRepository) WithinResourceLock(_ context.Context, resourceID string, fn func(repo Repository) error) error {
	m.locksMu.Lock()
	l, ok := m.locks[resourceID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[resourceID] = l
	}
	m.locksMu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(m)
}

// filter returns clones of matching bookings ordered by start time.
func (m *MemoryRepository) filter(keep func(*Booking) bool) []*Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
