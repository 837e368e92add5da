package core

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Runtime wires the ambient pieces every binding shares: resolved
// configuration, logging, metrics, the binding event pipeline, the
// supervisor, and the capability registry. Owners created with WithRuntime
// report into it.
type Runtime struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver

	eventSink  BindingEventSink
	eventStore BindingEventStore
	queuedSink *QueuedEventSink

	supervisor   *Supervisor
	capabilities *CapabilityRegistry
	ins          *instrumentation
}

// RuntimeDependencies exposes the runtime's wired collaborators, mainly for
// downstream composition and tests.
type RuntimeDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	EventSink       BindingEventSink
	EventStore      BindingEventStore
	Supervisor      *Supervisor
	Capabilities    *CapabilityRegistry
}

// NewRuntime resolves configuration through the defaults, loaded, and
// runtime layers, then wires the event pipeline. The runtime works without a
// store: events fall through to a nop sink.
func NewRuntime(cfg Config, options ...Option) (*Runtime, error) {
	builder := defaultRuntimeBuilder(cfg)
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	provider, logger := glog.Resolve("tether", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("tether"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.supervisor == nil {
		builder.supervisor = NewSupervisor()
	}
	if builder.capabilities == nil {
		builder.capabilities = NewCapabilityRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	runtime := &Runtime{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		supervisor:      builder.supervisor,
		capabilities:    builder.capabilities,
	}

	sink := builder.eventSink
	if sink == nil && builder.eventStoreFactory != nil && builder.persistenceClient != nil {
		store, buildErr := builder.eventStoreFactory.BuildEventStore(builder.persistenceClient)
		if buildErr != nil {
			return nil, mapBuildError(builder.errorMapper, buildErr)
		}
		if store != nil {
			queued, queueErr := NewQueuedEventSink(store, NopBindingEventSink{}, finalConfig.Events.RetentionPolicy(), finalConfig.Events.BufferSize)
			if queueErr != nil {
				return nil, mapBuildError(builder.errorMapper, queueErr)
			}
			runtime.eventStore = store
			runtime.queuedSink = queued
			sink = queued
		}
	}
	if sink == nil {
		sink = NopBindingEventSink{}
	}
	if store, ok := sink.(BindingEventStore); ok && runtime.eventStore == nil {
		runtime.eventStore = store
	}
	runtime.eventSink = sink

	runtime.ins = &instrumentation{
		service: finalConfig.ServiceName,
		logger:  logger,
		metrics: runtime.metricsRecorder,
		sink:    sink,
	}
	return runtime, nil
}

func (r *Runtime) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

func (r *Runtime) Logger() Logger {
	if r == nil {
		return glog.Nop()
	}
	return r.logger
}

func (r *Runtime) Supervisor() *Supervisor {
	if r == nil {
		return nil
	}
	return r.supervisor
}

func (r *Runtime) Capabilities() *CapabilityRegistry {
	if r == nil {
		return nil
	}
	return r.capabilities
}

// Dependencies returns the wired collaborators for downstream composition.
func (r *Runtime) Dependencies() RuntimeDependencies {
	if r == nil {
		return RuntimeDependencies{}
	}
	return RuntimeDependencies{
		Logger:          r.logger,
		LoggerProvider:  r.loggerProvider,
		MetricsRecorder: r.metricsRecorder,
		ErrorFactory:    r.errorFactory,
		ErrorMapper:     r.errorMapper,
		ConfigProvider:  r.configProvider,
		OptionsResolver: r.optionsResolver,
		EventSink:       r.eventSink,
		EventStore:      r.eventStore,
		Supervisor:      r.supervisor,
		Capabilities:    r.capabilities,
	}
}

func (r *Runtime) instrumentation() *instrumentation {
	if r == nil {
		return nil
	}
	return r.ins
}

// SeverBinding seals the supervised binding with the given identity. The
// bool reports whether this call performed the seal.
func (r *Runtime) SeverBinding(ctx context.Context, bindingID string) (bool, error) {
	if r == nil {
		return false, badUsageError("core: runtime is required")
	}
	startedAt := time.Now()
	bindingID = strings.TrimSpace(bindingID)
	if bindingID == "" {
		err := badUsageError("core: binding id is required")
		r.ins.observe(startedAt, "sever_binding", err, map[string]any{"binding_id": bindingID})
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, r.errorMapper(err)
	}

	sealed, err := r.supervisor.Sever(bindingID)
	if err != nil {
		mapped := r.errorMapper(err)
		r.ins.observe(startedAt, "sever_binding", mapped, map[string]any{"binding_id": bindingID})
		return false, mapped
	}
	r.ins.observe(startedAt, "sever_binding", nil, map[string]any{"binding_id": bindingID})
	return sealed, nil
}

// RecordBindingEvent pushes an event into the runtime's sink, stamping
// identity and creation time when absent.
func (r *Runtime) RecordBindingEvent(ctx context.Context, event BindingEvent) error {
	if r == nil {
		return badUsageError("core: runtime is required")
	}
	if strings.TrimSpace(event.BindingID) == "" {
		return badUsageError("core: binding id is required")
	}
	if strings.TrimSpace(string(event.Type)) == "" {
		return badUsageError("core: event type is required")
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := r.eventSink.Record(ctx, event); err != nil {
		return r.errorMapper(err)
	}
	return nil
}

// ListBindingEvents pages through recorded events. It fails when the runtime
// was built without a store.
func (r *Runtime) ListBindingEvents(ctx context.Context, filter BindingEventFilter) (BindingEventPage, error) {
	if r == nil {
		return BindingEventPage{}, badUsageError("core: runtime is required")
	}
	if r.eventStore == nil {
		return BindingEventPage{}, badUsageError("core: no binding event store is configured")
	}
	page, err := r.eventStore.List(ctx, filter)
	if err != nil {
		return BindingEventPage{}, r.errorMapper(err)
	}
	return page, nil
}

// GetBindingStatus reports the live state of a supervised binding.
func (r *Runtime) GetBindingStatus(ctx context.Context, bindingID string) (BindingStatus, error) {
	if r == nil {
		return BindingStatus{}, badUsageError("core: runtime is required")
	}
	if err := ctx.Err(); err != nil {
		return BindingStatus{}, r.errorMapper(err)
	}
	owner, err := r.supervisor.Get(bindingID)
	if err != nil {
		return BindingStatus{}, r.errorMapper(err)
	}
	return BindingStatus{
		BindingID:   owner.BindingID(),
		Owner:       owner.OwnerName(),
		Policy:      owner.PolicyName(),
		Bound:       owner.Bound(),
		Outstanding: owner.Outstanding(),
	}, nil
}

// ListBindings reports the live state of every supervised binding, ordered
// by binding identity.
func (r *Runtime) ListBindings(ctx context.Context) ([]BindingStatus, error) {
	if r == nil {
		return nil, badUsageError("core: runtime is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, r.errorMapper(err)
	}
	owners := r.supervisor.List()
	statuses := make([]BindingStatus, 0, len(owners))
	for _, owner := range owners {
		statuses = append(statuses, BindingStatus{
			BindingID:   owner.BindingID(),
			Owner:       owner.OwnerName(),
			Policy:      owner.PolicyName(),
			Bound:       owner.Bound(),
			Outstanding: owner.Outstanding(),
		})
	}
	return statuses, nil
}

// EnforceEventRetention prunes stored events per the configured retention
// policy. A runtime without a pruning store reports zero deletions.
func (r *Runtime) EnforceEventRetention(ctx context.Context) (int, error) {
	if r == nil {
		return 0, badUsageError("core: runtime is required")
	}
	if r.queuedSink != nil {
		deleted, err := r.queuedSink.EnforceRetention(ctx)
		if err != nil {
			return 0, r.errorMapper(err)
		}
		return deleted, nil
	}
	if pruner, ok := r.eventSink.(BindingEventPruner); ok {
		deleted, err := pruner.Prune(ctx, r.config.Events.RetentionPolicy())
		if err != nil {
			return 0, r.errorMapper(err)
		}
		return deleted, nil
	}
	return 0, nil
}

// Close drains and stops the queued event sink. Live bindings are not
// severed; callers that want a clean teardown call Supervisor().SeverAll
// first.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	if r.queuedSink != nil {
		r.queuedSink.Close()
	}
	return nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return tetherErrorMapper(err)
	}
	return mapper(err)
}
