package tether

import (
	"github.com/goliatone/go-tether/binding"
	"github.com/goliatone/go-tether/core"
)

// Binding policy names accepted by WithPolicyName and Config.DefaultPolicy.
const (
	PolicyManual       = binding.PolicyManual
	PolicySingleThread = binding.PolicySingleThread
	PolicyCrossThread  = binding.PolicyCrossThread
)

type Config = core.Config

type EventsConfig = core.EventsConfig

type EventRetentionPolicy = core.EventRetentionPolicy

type Option = core.Option

type Runtime = core.Runtime

type RuntimeDependencies = core.RuntimeDependencies

type Owner[T any] = core.Owner[T]
type Handle[T any] = core.Handle[T]
type Guard[T any] = core.Guard[T]
type View[I any] = core.View[I]
type ViewGuard[I any] = core.ViewGuard[I]
type Adapter[T any, I any] = core.Adapter[T, I]

type OwnerOption = core.OwnerOption
type Supervisor = core.Supervisor
type CapabilityRegistry = core.CapabilityRegistry

type BindingEvent = core.BindingEvent
type BindingEventType = core.BindingEventType
type BindingEventFilter = core.BindingEventFilter
type BindingEventPage = core.BindingEventPage
type BindingStatus = core.BindingStatus
type BindingEventSink = core.BindingEventSink
type BindingEventStore = core.BindingEventStore

type Logger = core.Logger
type LoggerProvider = core.LoggerProvider
type MetricsRecorder = core.MetricsRecorder

const (
	EventFixed    = core.BindingEventFixed
	EventBound    = core.BindingEventBound
	EventBorrowed = core.BindingEventBorrowed
	EventReleased = core.BindingEventReleased
	EventCloned   = core.BindingEventCloned
	EventRedeemed = core.BindingEventRedeemed
	EventSevered  = core.BindingEventSevered
	EventSealed   = core.BindingEventSealed
)

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithEventSink          = core.WithEventSink
	WithEventStoreFactory  = core.WithEventStoreFactory
	WithPersistenceClient  = core.WithPersistenceClient
	WithSupervisor         = core.WithSupervisor
	WithCapabilityRegistry = core.WithCapabilityRegistry

	WithPolicy             = core.WithPolicy
	WithPolicyName         = core.WithPolicyName
	WithOwnerName          = core.WithOwnerName
	WithRuntime            = core.WithRuntime
	WithOwnerLogger        = core.WithOwnerLogger
	WithSupervisorRegistry = core.WithSupervisorRegistry
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewRuntime(cfg Config, opts ...Option) (*Runtime, error) {
	return core.NewRuntime(cfg, opts...)
}

func NewSupervisor() *Supervisor {
	return core.NewSupervisor()
}

func NewCapabilityRegistry() *CapabilityRegistry {
	return core.NewCapabilityRegistry()
}

func NewOwner[T any](value T, opts ...OwnerOption) (*Owner[T], error) {
	return core.NewOwner(value, opts...)
}

// Redeem settles a manually paired handle against its owner, returning
// the number of references still outstanding.
func Redeem[T any](handle *Handle[T], owner *Owner[T]) (int, error) {
	return core.Redeem(handle, owner)
}

// BindAs projects the owner's value through adapt and binds the result
// as a capability view.
func BindAs[T any, I any](owner *Owner[T], adapt Adapter[T, I]) (*View[I], error) {
	return core.BindAs(owner, adapt)
}

func RedeemView[T any, I any](view *View[I], owner *Owner[T]) (int, error) {
	return core.RedeemView(view, owner)
}

func BindNamed[T any, I any](registry *CapabilityRegistry, name string, owner *Owner[T], adapt Adapter[T, I]) (*View[I], error) {
	return core.BindNamed(registry, name, owner, adapt)
}

func ResolveView[I any](registry *CapabilityRegistry, name string) (*View[I], error) {
	return core.ResolveView[I](registry, name)
}
