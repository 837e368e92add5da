package core

import (
	"sort"
	"strings"
	"sync"
)

// CapabilityRegistry indexes bound capability views by name so downstream
// code can resolve a capability without knowing which owner produced it.
// Values are stored erased; ResolveView recovers the typed view.
type CapabilityRegistry struct {
	mu      sync.RWMutex
	entries map[string]any
}

func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{
		entries: map[string]any{},
	}
}

// Register stores a view under name, replacing any previous entry.
func (r *CapabilityRegistry) Register(name string, view any) error {
	if r == nil {
		return badUsageError("core: capability registry is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return badUsageError("core: capability name is required")
	}
	if view == nil {
		return badUsageError("core: capability view is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]any{}
	}
	r.entries[name] = view
	return nil
}

// Get returns the raw registered entry.
func (r *CapabilityRegistry) Get(name string) (any, error) {
	if r == nil {
		return nil, badUsageError("core: capability registry is required")
	}
	r.mu.RLock()
	entry, ok := r.entries[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, capabilityNotFoundError("core: capability %q is not registered", name)
	}
	return entry, nil
}

// Deregister removes the entry; removing an unknown name is a no-op.
func (r *CapabilityRegistry) Deregister(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.entries, strings.TrimSpace(name))
	r.mu.Unlock()
}

// List returns registered capability names in deterministic order.
func (r *CapabilityRegistry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// ResolveView fetches a registered view and asserts its capability type. A
// registered entry of a different capability type is reported as bad usage,
// not as missing.
func ResolveView[I any](registry *CapabilityRegistry, name string) (*View[I], error) {
	entry, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	view, ok := entry.(*View[I])
	if !ok {
		return nil, badUsageError("core: capability %q is registered with a different interface", name)
	}
	return view, nil
}

// BindNamed binds a capability view from owner through adapt and registers
// it in one step.
func BindNamed[T any, I any](registry *CapabilityRegistry, name string, owner *Owner[T], adapt Adapter[T, I]) (*View[I], error) {
	view, err := BindAs(owner, adapt)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(name, view); err != nil {
		// Retire the reference issued by BindAs so the owner can still seal.
		// The manual policy refuses view-side sever, so redeem it instead.
		if !view.Sever() {
			_, _ = RedeemView(view, owner)
		}
		return nil, err
	}
	return view, nil
}
