package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// QueuedEventSink decouples protocol hot paths from event persistence. Record
// never blocks on the primary store: entries queue into a bounded channel and
// a single worker drains them, spilling to the fallback sink when the queue is
// full or the primary rejects a write.
type QueuedEventSink struct {
	primary  BindingEventSink
	fallback BindingEventSink
	policy   EventRetentionPolicy
	pruner   BindingEventPruner

	queue chan BindingEvent
	now   func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewQueuedEventSink(
	primary BindingEventSink,
	fallback BindingEventSink,
	policy EventRetentionPolicy,
	bufferSize int,
) (*QueuedEventSink, error) {
	if primary == nil {
		return nil, fmt.Errorf("core: primary binding event sink is required")
	}
	if bufferSize <= 0 {
		bufferSize = 128
	}

	sink := &QueuedEventSink{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		queue:    make(chan BindingEvent, bufferSize),
		now: func() time.Time {
			return time.Now().UTC()
		},
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if pruner, ok := primary.(BindingEventPruner); ok {
		sink.pruner = pruner
	}

	go sink.run()
	return sink, nil
}

func (s *QueuedEventSink) Record(ctx context.Context, event BindingEvent) error {
	if s == nil || s.primary == nil {
		return fmt.Errorf("core: queued event sink is not configured")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- event:
		return nil
	default:
		if s.fallback != nil {
			return s.fallback.Record(ctx, event)
		}
		return nil
	}
}

// List delegates to the primary sink when it doubles as a store.
func (s *QueuedEventSink) List(ctx context.Context, filter BindingEventFilter) (BindingEventPage, error) {
	if s == nil || s.primary == nil {
		return BindingEventPage{}, fmt.Errorf("core: queued event sink is not configured")
	}
	store, ok := s.primary.(BindingEventStore)
	if !ok {
		return BindingEventPage{}, fmt.Errorf("core: primary binding event sink does not support listing")
	}
	return store.List(ctx, filter)
}

func (s *QueuedEventSink) EnforceRetention(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: queued event sink is not configured")
	}
	pruner := s.pruner
	if pruner == nil {
		if p, ok := s.primary.(BindingEventPruner); ok {
			pruner = p
		}
	}
	if pruner == nil {
		return 0, nil
	}
	return pruner.Prune(ctx, s.policy)
}

func (s *QueuedEventSink) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

func (s *QueuedEventSink) run() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			s.drain()
			return
		case event := <-s.queue:
			s.deliver(event)
		}
	}
}

// drain flushes whatever is still queued at shutdown.
func (s *QueuedEventSink) drain() {
	for {
		select {
		case event := <-s.queue:
			s.deliver(event)
		default:
			return
		}
	}
}

func (s *QueuedEventSink) deliver(event BindingEvent) {
	if err := s.primary.Record(context.Background(), event); err != nil && s.fallback != nil {
		_ = s.fallback.Record(context.Background(), event)
	}
}

var _ BindingEventSink = (*QueuedEventSink)(nil)

// NopBindingEventSink discards every event. It is the default sink when no
// store is configured.
type NopBindingEventSink struct{}

func (NopBindingEventSink) Record(ctx context.Context, event BindingEvent) error {
	return nil
}

var _ BindingEventSink = NopBindingEventSink{}
