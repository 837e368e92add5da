package core

import (
	"context"
	"sort"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// memoryEventStore is a sink, store, and pruner backed by a slice.
type memoryEventStore struct {
	mu     sync.Mutex
	events []BindingEvent
	pruned int
}

func (s *memoryEventStore) Record(ctx context.Context, event BindingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memoryEventStore) List(ctx context.Context, filter BindingEventFilter) (BindingEventPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]BindingEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.BindingID != "" && event.BindingID != filter.BindingID {
			continue
		}
		if filter.Owner != "" && event.Owner != filter.Owner {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		matched = append(matched, event)
	}
	// newest first, matching the sql store's ordering
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return BindingEventPage{
		Items:   matched,
		Page:    1,
		PerPage: len(matched),
		Total:   len(matched),
	}, nil
}

func (s *memoryEventStore) Prune(ctx context.Context, policy EventRetentionPolicy) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if policy.RowCap <= 0 || len(s.events) <= policy.RowCap {
		return 0, nil
	}
	deleted := len(s.events) - policy.RowCap
	s.events = s.events[deleted:]
	s.pruned += deleted
	return deleted, nil
}

func (s *memoryEventStore) types() []BindingEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BindingEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.Type)
	}
	return out
}

func (s *memoryEventStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func textCodeOf(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	return richErr.TextCode
}

type fixedConfigProvider struct {
	cfg Config
}

func (p fixedConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	return p.cfg, nil
}
