package testhelper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nuforge/ttg-clca-bridge/internal/dlq"
)

// MemStore is an in-memory dlq.Store for tests.
type MemStore struct {
	mu         sync.Mutex
	Entries    map[string]*dlq.Entry
	Failed     map[string]*dlq.FailedEntry
	ShouldFail bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		Entries: make(map[string]*dlq.Entry),
		Failed:  make(map[string]*dlq.FailedEntry),
	}
}

func (s *MemStore) Add(ctx context.Context, entry *dlq.Entry) error {
	if s.ShouldFail {
		return fmt.Errorf("mem store: add failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.Entries[entry.ID] = &copied
	return nil
}

func (s *MemStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*dlq.Entry, error) {
	if s.ShouldFail {
		return nil, fmt.Errorf("mem store: list failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*dlq.Entry
	for _, entry := range s.Entries {
		if !entry.RetryAfter.After(now) {
			copied := *entry
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].RetryAfter.Before(due[j].RetryAfter) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemStore) Update(ctx context.Context, entry *dlq.Entry) error {
	if s.ShouldFail {
		return fmt.Errorf("mem store: update failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.Entries[entry.ID] = &copied
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	if s.ShouldFail {
		return fmt.Errorf("mem store: delete failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Entries, id)
	return nil
}

func (s *MemStore) MoveToFailed(ctx context.Context, failed *dlq.FailedEntry) error {
	if s.ShouldFail {
		return fmt.Errorf("mem store: move failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if failed.OriginalDLQID != "" {
		delete(s.Entries, failed.OriginalDLQID)
	}
	copied := *failed
	s.Failed[failed.ID] = &copied
	return nil
}

func (s *MemStore) Stats(ctx context.Context, now time.Time) (*dlq.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &dlq.Stats{
		Pending: int64(len(s.Entries)),
		Failed:  int64(len(s.Failed)),
	}
	for _, entry := range s.Entries {
		if !entry.RetryAfter.After(now) {
			stats.Due++
		}
		if stats.OldestRetryTime == nil || entry.RetryAfter.Before(*stats.OldestRetryTime) {
			t := entry.RetryAfter
			stats.OldestRetryTime = &t
		}
	}
	return stats, nil
}

func (s *MemStore) Items(ctx context.Context, limit int) ([]*dlq.Entry, error) {
	return s.ListDue(ctx, time.Unix(1<<40, 0), limit)
}

func (s *MemStore) FailedItems(ctx context.Context, limit int) ([]*dlq.FailedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*dlq.FailedEntry
	for _, failed := range s.Failed {
		copied := *failed
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FailedAt.After(items[j].FailedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemStore) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := int64(len(s.Entries))
	s.Entries = make(map[string]*dlq.Entry)
	return removed, nil
}
