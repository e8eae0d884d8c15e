package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
)

// EntryRepository keeps entries in process memory. Content is lost on
// restart.
type EntryRepository struct {
	mu      sync.RWMutex
	entries []domain.Entry
	now     func() time.Time
}

func NewEntryRepository() *EntryRepository {
	return &EntryRepository{now: time.Now}
}

func (r *EntryRepository) Create(_ context.Context, e *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *e
	stored.Data = maps.Clone(e.Data)
	r.entries = append(r.entries, stored)
	return nil
}

func (r *EntryRepository) ListByUser(_ context.Context, userID string, limit int) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *EntryRepository) UnreadCount(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.UserID == userID && !e.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *EntryRepository) MarkRead(_ context.Context, id uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		e := &r.entries[i]
		if e.ID != id || e.UserID != userID {
			continue
		}
		if !e.IsRead {
			now := r.now().UTC()
			e.IsRead = true
			e.ReadAt = &now
		}
		return nil
	}
	return domain.ErrEntryNotFound
}

func (r *EntryRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	n := 0
	for i := range r.entries {
		e := &r.entries[i]
		if e.UserID == userID && !e.IsRead {
			e.IsRead = true
			e.ReadAt = &now
			n++
		}
	}
	return n, nil
}
