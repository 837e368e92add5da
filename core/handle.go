package core

import (
	"sync/atomic"
	"time"
)

// Handle is a counted reference to an owner's value. Handles are minted by
// Owner.Bind, duplicated by Clone under counting policies, and retired either
// by Sever or, under the manual policy, by handing them back through Redeem.
//
// A handle never outlives the value it points at: Owner.Sever will not
// complete while the handle is live.
type Handle[T any] struct {
	owner   *Owner[T]
	severed atomic.Bool
}

// Borrow takes a guard on the owner's value. The guard pins the binding open
// until it is released.
func (h *Handle[T]) Borrow() (*Guard[T], error) {
	if h == nil || h.owner == nil {
		return nil, badUsageError("core: handle is required")
	}
	owner := h.owner
	startedAt := time.Now()

	if h.severed.Load() {
		err := severedError("core: handle for owner %q is severed", owner.name)
		owner.ins.observe(startedAt, "borrow", err, owner.eventFields())
		return nil, err
	}
	if err := owner.policy.Acquire(); err != nil {
		owner.ins.observe(startedAt, "borrow", err, owner.eventFields())
		return nil, err
	}

	guard := &Guard[T]{
		value:     &owner.value,
		policy:    owner.policy,
		ins:       owner.ins,
		ownerName: owner.name,
	}
	owner.ins.record(owner.policy, owner.name, BindingEventBorrowed, nil)
	owner.ins.observe(startedAt, "borrow", nil, owner.eventFields())
	return guard, nil
}

// Clone mints another handle against the same binding. Only counting
// policies support cloning; the manual policy tracks exactly one handle.
func (h *Handle[T]) Clone() (*Handle[T], error) {
	if h == nil || h.owner == nil {
		return nil, badUsageError("core: handle is required")
	}
	owner := h.owner
	startedAt := time.Now()

	if !owner.policy.Cloneable() {
		err := badUsageError("core: policy %q does not support handle cloning", owner.policy.Name())
		owner.ins.observe(startedAt, "clone", err, owner.eventFields())
		return nil, err
	}
	if h.severed.Load() {
		err := severedError("core: handle for owner %q is severed", owner.name)
		owner.ins.observe(startedAt, "clone", err, owner.eventFields())
		return nil, err
	}
	if err := owner.policy.Issue(); err != nil {
		owner.ins.observe(startedAt, "clone", err, owner.eventFields())
		return nil, err
	}

	clone := &Handle[T]{owner: owner}
	owner.ins.record(owner.policy, owner.name, BindingEventCloned, nil)
	owner.ins.observe(startedAt, "clone", nil, owner.eventFields())
	return clone, nil
}

// Sever drops the handle's reference without redeeming it. The first call
// returns true; later calls return false. Under the manual policy Sever
// always returns false: manual handles must travel back to their owner via
// Redeem.
func (h *Handle[T]) Sever() bool {
	if h == nil || h.owner == nil {
		return false
	}
	owner := h.owner
	startedAt := time.Now()

	if owner.policy.RequiresRedeem() {
		return false
	}
	if !h.severed.CompareAndSwap(false, true) {
		return false
	}
	if err := owner.policy.Retire(); err != nil {
		owner.ins.observe(startedAt, "handle_sever", err, owner.eventFields())
		return true
	}

	owner.ins.record(owner.policy, owner.name, BindingEventSevered, map[string]any{"scope": "handle"})
	owner.ins.observe(startedAt, "handle_sever", nil, owner.eventFields())
	return true
}

// Bound reports whether the handle can still borrow: it has not been severed
// or redeemed and the binding itself has not started sealing.
func (h *Handle[T]) Bound() bool {
	if h == nil || h.owner == nil {
		return false
	}
	return !h.severed.Load() && !h.owner.policy.Severed()
}

// BindingID returns the identity token shared with the owner that minted the
// handle.
func (h *Handle[T]) BindingID() string {
	if h == nil || h.owner == nil {
		return ""
	}
	return h.owner.policy.ID()
}

// Redeem hands a handle back to the owner that minted it and retires its
// reference. It reports the references still outstanding after the retire,
// which tells a caller whether the owner can now sever without blocking.
//
// Redeeming a handle against a different owner, or redeeming the same handle
// twice, fails with an invalid-redeem error and retires nothing.
func Redeem[T any](handle *Handle[T], owner *Owner[T]) (remaining int, err error) {
	if handle == nil {
		return 0, badUsageError("core: handle is required")
	}
	if owner == nil {
		return 0, badUsageError("core: owner is required")
	}
	startedAt := time.Now()

	if handle.owner != owner || handle.owner.policy.ID() != owner.policy.ID() {
		err := invalidRedeemError("core: cannot redeem handle against owner %q: binding mismatch", owner.name)
		owner.ins.observe(startedAt, "redeem", err, owner.eventFields())
		return 0, err
	}
	if !handle.severed.CompareAndSwap(false, true) {
		err := invalidRedeemError("core: handle for owner %q was already redeemed or severed", owner.name)
		owner.ins.observe(startedAt, "redeem", err, owner.eventFields())
		return 0, err
	}
	if err := owner.policy.Retire(); err != nil {
		owner.ins.observe(startedAt, "redeem", err, owner.eventFields())
		return 0, err
	}

	remaining = owner.policy.Outstanding()
	owner.ins.record(owner.policy, owner.name, BindingEventRedeemed, map[string]any{"remaining": remaining})
	owner.ins.observe(startedAt, "redeem", nil, owner.eventFields())
	return remaining, nil
}
