package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-tether/binding"
)

// Owner holds a value and the binding policy that tracks every handle and
// guard minted against it. The value stays in place for the owner's entire
// lifetime; handles reach it only through guards.
//
// An owner starts unfixed. Fix pins the value and makes the binding live;
// only a fixed owner can mint handles. Sever seals the binding: it blocks
// (or panics, policy dependent) until every outstanding reference is gone,
// after which the value may be reclaimed safely.
type Owner[T any] struct {
	mu     sync.Mutex
	value  T
	policy binding.Policy
	name   string
	fixed  bool

	ins        *instrumentation
	supervisor *Supervisor
}

// OwnerOption configures an owner at construction time.
type OwnerOption func(*ownerBuilder)

type ownerBuilder struct {
	policy     binding.Policy
	policyName string
	name       string
	ins        *instrumentation
	supervisor *Supervisor
}

// WithPolicy binds the owner to an explicit policy instance.
func WithPolicy(policy binding.Policy) OwnerOption {
	return func(builder *ownerBuilder) {
		if policy != nil {
			builder.policy = policy
		}
	}
}

// WithPolicyName selects the policy by name, e.g. binding.PolicyCrossThread.
func WithPolicyName(name string) OwnerOption {
	return func(builder *ownerBuilder) {
		if strings.TrimSpace(name) != "" {
			builder.policyName = strings.TrimSpace(name)
		}
	}
}

// WithOwnerName labels the owner in events, logs, and the supervisor index.
func WithOwnerName(name string) OwnerOption {
	return func(builder *ownerBuilder) {
		if strings.TrimSpace(name) != "" {
			builder.name = strings.TrimSpace(name)
		}
	}
}

// WithRuntime attaches the runtime's instrumentation and supervisor, and
// inherits its configured default policy when none is set explicitly.
func WithRuntime(runtime *Runtime) OwnerOption {
	return func(builder *ownerBuilder) {
		if runtime == nil {
			return
		}
		builder.ins = runtime.instrumentation()
		builder.supervisor = runtime.Supervisor()
		if builder.policyName == "" {
			builder.policyName = runtime.Config().DefaultPolicy
		}
	}
}

// WithOwnerLogger attaches a standalone logger when no runtime is in play.
func WithOwnerLogger(logger Logger) OwnerOption {
	return func(builder *ownerBuilder) {
		if logger == nil {
			return
		}
		if builder.ins == nil {
			builder.ins = &instrumentation{service: "tether", logger: logger}
			return
		}
		builder.ins.logger = logger
	}
}

// WithSupervisorRegistry registers the owner with the given supervisor once
// it is fixed.
func WithSupervisorRegistry(supervisor *Supervisor) OwnerOption {
	return func(builder *ownerBuilder) {
		if supervisor != nil {
			builder.supervisor = supervisor
		}
	}
}

// NewOwner wraps value in an unfixed owner. The policy defaults to
// cross-thread counting when neither WithPolicy nor WithPolicyName is given.
func NewOwner[T any](value T, options ...OwnerOption) (*Owner[T], error) {
	builder := &ownerBuilder{}
	for _, option := range options {
		if option != nil {
			option(builder)
		}
	}
	if builder.policyName == "" {
		builder.policyName = binding.PolicyCrossThread
	}

	policy := builder.policy
	if policy == nil {
		created, err := binding.New(builder.policyName)
		if err != nil {
			return nil, err
		}
		policy = created
	}

	name := builder.name
	if name == "" {
		id := policy.ID()
		if len(id) > 8 {
			id = id[:8]
		}
		name = "owner-" + id
	}

	return &Owner[T]{
		value:      value,
		policy:     policy,
		name:       name,
		ins:        builder.ins,
		supervisor: builder.supervisor,
	}, nil
}

// Fix pins the value and makes the binding live. Handles can only be minted
// from a fixed owner. Fixing twice is an error; fixing a severed owner is an
// error.
func (o *Owner[T]) Fix() error {
	if o == nil {
		return fmt.Errorf("core: owner is required")
	}
	startedAt := time.Now()

	o.mu.Lock()
	if o.fixed {
		o.mu.Unlock()
		err := badUsageError("core: owner %q is already fixed", o.name)
		o.ins.observe(startedAt, "fix", err, o.eventFields())
		return err
	}
	if o.policy.Severed() {
		o.mu.Unlock()
		err := severedError("core: binding for owner %q is severed", o.name)
		o.ins.observe(startedAt, "fix", err, o.eventFields())
		return err
	}
	o.fixed = true
	o.mu.Unlock()

	if o.supervisor != nil {
		o.supervisor.Register(o)
	}

	o.ins.record(o.policy, o.name, BindingEventFixed, nil)
	o.ins.observe(startedAt, "fix", nil, o.eventFields())
	return nil
}

// Bind mints a handle against the owner's value. The policy tracks the
// handle as an outstanding reference until it is severed or redeemed.
func (o *Owner[T]) Bind() (*Handle[T], error) {
	if o == nil {
		return nil, fmt.Errorf("core: owner is required")
	}
	startedAt := time.Now()

	o.mu.Lock()
	fixed := o.fixed
	o.mu.Unlock()

	if !fixed {
		err := badUsageError("core: owner %q must be fixed before binding", o.name)
		o.ins.observe(startedAt, "bind", err, o.eventFields())
		return nil, err
	}
	if err := o.policy.Issue(); err != nil {
		o.ins.observe(startedAt, "bind", err, o.eventFields())
		return nil, err
	}

	handle := &Handle[T]{owner: o}
	o.ins.record(o.policy, o.name, BindingEventBound, nil)
	o.ins.observe(startedAt, "bind", nil, o.eventFields())
	return handle, nil
}

// Sever seals the binding. Under the cross-thread policy the call blocks
// until every outstanding reference drains; under the single-owner policies
// it panics when references remain. Returns true for the call that performed
// the seal, false when the binding was already severed.
func (o *Owner[T]) Sever() bool {
	if o == nil {
		return false
	}
	startedAt := time.Now()

	sealed := o.policy.Seal()

	if o.supervisor != nil {
		o.supervisor.Deregister(o.policy.ID())
	}
	if sealed {
		o.ins.record(o.policy, o.name, BindingEventSevered, nil)
		o.ins.record(o.policy, o.name, BindingEventSealed, nil)
	}
	o.ins.observe(startedAt, "sever", nil, o.eventFields())
	return sealed
}

// Close severs the binding. It exists so owners can ride defer and io.Closer
// plumbing; it never fails.
func (o *Owner[T]) Close() error {
	if o == nil {
		return nil
	}
	o.Sever()
	return nil
}

// Bound reports whether the owner is fixed and not yet severed.
func (o *Owner[T]) Bound() bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	fixed := o.fixed
	o.mu.Unlock()
	return fixed && !o.policy.Severed()
}

// BindingID returns the identity token shared by the owner and every handle
// minted from it.
func (o *Owner[T]) BindingID() string {
	if o == nil {
		return ""
	}
	return o.policy.ID()
}

func (o *Owner[T]) OwnerName() string {
	if o == nil {
		return ""
	}
	return o.name
}

func (o *Owner[T]) PolicyName() string {
	if o == nil {
		return ""
	}
	return o.policy.Name()
}

// Outstanding reports the number of live references the policy is tracking.
func (o *Owner[T]) Outstanding() int {
	if o == nil {
		return 0
	}
	return o.policy.Outstanding()
}

func (o *Owner[T]) eventFields() map[string]any {
	return map[string]any{
		"binding_id": o.policy.ID(),
		"owner":      o.name,
		"policy":     o.policy.Name(),
	}
}
