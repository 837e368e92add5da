package core

import (
	"sync/atomic"
	"time"

	"github.com/goliatone/go-tether/binding"
)

// Adapter projects an owner's concrete value onto a capability interface.
// The projection runs once, when the view is bound; every borrow afterwards
// hands out the same descriptor.
type Adapter[T any, I any] func(*T) I

// View is a type-erased handle: consumers see only the capability interface
// I, never the owner's concrete type. The view's reference is tracked by the
// same policy as regular handles, so a live view blocks Owner.Sever exactly
// like a live handle does.
type View[I any] struct {
	policy     binding.Policy
	descriptor I
	ins        *instrumentation
	ownerName  string
	severed    atomic.Bool
}

// BindAs mints a view over the owner's value through adapt. The owner must
// be fixed: the descriptor captures a pointer into the owner and the policy
// is what keeps that pointer alive.
func BindAs[T any, I any](owner *Owner[T], adapt Adapter[T, I]) (*View[I], error) {
	if owner == nil {
		return nil, badUsageError("core: owner is required")
	}
	if adapt == nil {
		return nil, badUsageError("core: capability adapter is required")
	}
	startedAt := time.Now()

	owner.mu.Lock()
	fixed := owner.fixed
	owner.mu.Unlock()
	if !fixed {
		err := badUsageError("core: owner %q must be fixed before binding a capability", owner.name)
		owner.ins.observe(startedAt, "bind_capability", err, owner.eventFields())
		return nil, err
	}
	if err := owner.policy.Issue(); err != nil {
		owner.ins.observe(startedAt, "bind_capability", err, owner.eventFields())
		return nil, err
	}

	view := &View[I]{
		policy:     owner.policy,
		descriptor: adapt(&owner.value),
		ins:        owner.ins,
		ownerName:  owner.name,
	}
	owner.ins.record(owner.policy, owner.name, BindingEventBound, map[string]any{"kind": "capability"})
	owner.ins.observe(startedAt, "bind_capability", nil, owner.eventFields())
	return view, nil
}

// Borrow takes a guard on the capability. The binding stays open until the
// guard is released.
func (v *View[I]) Borrow() (*ViewGuard[I], error) {
	if v == nil || v.policy == nil {
		return nil, badUsageError("core: capability view is required")
	}
	startedAt := time.Now()

	if v.severed.Load() {
		err := severedError("core: capability view for owner %q is severed", v.ownerName)
		v.ins.observe(startedAt, "borrow_capability", err, v.eventFields())
		return nil, err
	}
	if err := v.policy.Acquire(); err != nil {
		v.ins.observe(startedAt, "borrow_capability", err, v.eventFields())
		return nil, err
	}

	guard := &ViewGuard[I]{
		capability: v.descriptor,
		policy:     v.policy,
		ins:        v.ins,
		ownerName:  v.ownerName,
	}
	v.ins.record(v.policy, v.ownerName, BindingEventBorrowed, map[string]any{"kind": "capability"})
	v.ins.observe(startedAt, "borrow_capability", nil, v.eventFields())
	return guard, nil
}

// Clone mints another view of the same capability under counting policies.
func (v *View[I]) Clone() (*View[I], error) {
	if v == nil || v.policy == nil {
		return nil, badUsageError("core: capability view is required")
	}
	startedAt := time.Now()

	if !v.policy.Cloneable() {
		err := badUsageError("core: policy %q does not support view cloning", v.policy.Name())
		v.ins.observe(startedAt, "clone_capability", err, v.eventFields())
		return nil, err
	}
	if v.severed.Load() {
		err := severedError("core: capability view for owner %q is severed", v.ownerName)
		v.ins.observe(startedAt, "clone_capability", err, v.eventFields())
		return nil, err
	}
	if err := v.policy.Issue(); err != nil {
		v.ins.observe(startedAt, "clone_capability", err, v.eventFields())
		return nil, err
	}

	clone := &View[I]{
		policy:     v.policy,
		descriptor: v.descriptor,
		ins:        v.ins,
		ownerName:  v.ownerName,
	}
	v.ins.record(v.policy, v.ownerName, BindingEventCloned, map[string]any{"kind": "capability"})
	return clone, nil
}

// Sever drops the view's reference. Under the manual policy it returns false
// and retires nothing: manual views travel back through RedeemView.
func (v *View[I]) Sever() bool {
	if v == nil || v.policy == nil {
		return false
	}
	if v.policy.RequiresRedeem() {
		return false
	}
	if !v.severed.CompareAndSwap(false, true) {
		return false
	}
	if err := v.policy.Retire(); err != nil {
		return true
	}
	v.ins.record(v.policy, v.ownerName, BindingEventSevered, map[string]any{"kind": "capability", "scope": "handle"})
	return true
}

// Bound reports whether the view can still borrow.
func (v *View[I]) Bound() bool {
	if v == nil || v.policy == nil {
		return false
	}
	return !v.severed.Load() && !v.policy.Severed()
}

// BindingID returns the identity token shared with the owner.
func (v *View[I]) BindingID() string {
	if v == nil || v.policy == nil {
		return ""
	}
	return v.policy.ID()
}

func (v *View[I]) eventFields() map[string]any {
	return map[string]any{
		"binding_id": v.policy.ID(),
		"owner":      v.ownerName,
		"policy":     v.policy.Name(),
	}
}

// RedeemView hands a type-erased view back to the owner that minted it. The
// view does not know the owner's concrete type, so pairing is validated
// through the shared binding identity.
func RedeemView[T any, I any](view *View[I], owner *Owner[T]) (remaining int, err error) {
	if view == nil {
		return 0, badUsageError("core: capability view is required")
	}
	if owner == nil {
		return 0, badUsageError("core: owner is required")
	}
	startedAt := time.Now()

	if view.policy == nil || view.policy.ID() != owner.policy.ID() {
		err := invalidRedeemError("core: cannot redeem view against owner %q: binding mismatch", owner.name)
		owner.ins.observe(startedAt, "redeem_capability", err, owner.eventFields())
		return 0, err
	}
	if !view.severed.CompareAndSwap(false, true) {
		err := invalidRedeemError("core: view for owner %q was already redeemed or severed", owner.name)
		owner.ins.observe(startedAt, "redeem_capability", err, owner.eventFields())
		return 0, err
	}
	if err := owner.policy.Retire(); err != nil {
		owner.ins.observe(startedAt, "redeem_capability", err, owner.eventFields())
		return 0, err
	}

	remaining = owner.policy.Outstanding()
	owner.ins.record(owner.policy, owner.name, BindingEventRedeemed, map[string]any{"kind": "capability", "remaining": remaining})
	owner.ins.observe(startedAt, "redeem_capability", nil, owner.eventFields())
	return remaining, nil
}

// ViewGuard is a live borrow of a capability. Capability stays valid until
// Release.
type ViewGuard[I any] struct {
	capability I
	policy     binding.Policy
	ins        *instrumentation
	ownerName  string
	released   atomic.Bool
}

// Capability returns the projected interface. It must not be retained past
// Release.
func (g *ViewGuard[I]) Capability() I {
	var zero I
	if g == nil || g.released.Load() {
		return zero
	}
	return g.capability
}

// Release returns the borrow to the policy. Only the first call counts.
func (g *ViewGuard[I]) Release() {
	if g == nil {
		return
	}
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	g.policy.Release()
	g.ins.record(g.policy, g.ownerName, BindingEventReleased, map[string]any{"kind": "capability"})
}
