package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// BindingEventSink receives one event per protocol transition. Implementations
// must tolerate concurrent Record calls: owners, handles, and guards report
// from whichever goroutine performed the transition.
type BindingEventSink interface {
	Record(ctx context.Context, event BindingEvent) error
}

// BindingEventStore is a sink that also supports reads.
type BindingEventStore interface {
	BindingEventSink
	List(ctx context.Context, filter BindingEventFilter) (BindingEventPage, error)
}

// BindingEventPruner trims persisted events per retention policy. Stores
// implement it opportunistically; the queued sink discovers it by assertion.
type BindingEventPruner interface {
	Prune(ctx context.Context, policy EventRetentionPolicy) (deleted int, err error)
}

type EventRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

// EventStoreFactory builds a persistent event store from an opaque
// persistence client (a *bun.DB or a go-persistence-bun client).
type EventStoreFactory interface {
	BuildEventStore(persistenceClient any) (BindingEventStore, error)
}

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// OwnerRef is the policy-erased view of an owner tracked by a Supervisor.
// *Owner[T] and *Runtime-registered owners satisfy it regardless of the
// wrapped value's type.
type OwnerRef interface {
	BindingID() string
	OwnerName() string
	PolicyName() string
	Bound() bool
	Sever() bool
	Outstanding() int
}
