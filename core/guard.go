package core

import (
	"sync/atomic"
	"time"

	"github.com/goliatone/go-tether/binding"
)

// Guard is a live borrow of an owner's value. While a guard exists the
// binding cannot finish sealing, so the pointer returned by Value stays valid
// for the guard's whole lifetime. Release the guard as soon as the access is
// done; a leaked guard under the cross-thread policy blocks Owner.Sever
// forever.
type Guard[T any] struct {
	value     *T
	policy    binding.Policy
	ins       *instrumentation
	ownerName string
	released  atomic.Bool
}

// Value returns the guarded value. The pointer must not be retained past
// Release.
func (g *Guard[T]) Value() *T {
	if g == nil || g.released.Load() {
		return nil
	}
	return g.value
}

// Release returns the borrow to the policy. Safe to call more than once;
// only the first call counts.
func (g *Guard[T]) Release() {
	if g == nil {
		return
	}
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	startedAt := time.Now()
	g.policy.Release()
	g.ins.record(g.policy, g.ownerName, BindingEventReleased, nil)
	g.ins.observe(startedAt, "release", nil, map[string]any{
		"binding_id": g.policy.ID(),
		"owner":      g.ownerName,
		"policy":     g.policy.Name(),
	})
}
