package binding

import (
	"sync"

	"github.com/google/uuid"
)

// CrossThread counts references under a mutex so that Acquire, Release, and
// Seal interleave safely across goroutines. Seal with outstanding references
// suspends the caller on a condition variable until concurrent releases drain
// the count to zero.
//
// Seal takes no context and cannot be abandoned once requested. If a guard or
// handle holder never releases (for example a goroutine blocked on the same
// owner it holds a guard from), the seal deadlocks. That risk is documented,
// not detected.
type CrossThread struct {
	mu    sync.Mutex
	cond  *sync.Cond
	id    string
	count int
	state State
}

// NewCrossThread returns an unsealed cross-thread counted binding.
func NewCrossThread() *CrossThread {
	c := &CrossThread{id: uuid.NewString()}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *CrossThread) ID() string { return c.id }

func (c *CrossThread) Name() string { return PolicyCrossThread }

func (c *CrossThread) Cloneable() bool { return true }

func (c *CrossThread) RequiresRedeem() bool { return false }

func (c *CrossThread) Acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUnsealed {
		return newSeveredError("binding: cross-thread binding is severed")
	}
	c.count++
	return nil
}

func (c *CrossThread) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
}

func (c *CrossThread) Issue() error {
	return c.Acquire()
}

func (c *CrossThread) Retire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return newInvalidRedeemError("binding: cross-thread binding has no outstanding reference to redeem")
	}
	c.release()
	return nil
}

// Seal latches the binding shut and waits for outstanding references to
// drain. A concurrent Seal that loses the race waits for the winner to finish
// and reports false.
func (c *CrossThread) Seal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUnsealed {
		c.state = StateSealing
		for c.count > 0 {
			c.cond.Wait()
		}
		c.state = StateSealed
		c.cond.Broadcast()
		return true
	}

	for c.state != StateSealed {
		c.cond.Wait()
	}
	return false
}

func (c *CrossThread) Severed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateUnsealed
}

func (c *CrossThread) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// release must be called with c.mu held.
func (c *CrossThread) release() {
	if c.count == 0 {
		return
	}
	c.count--
	if c.count == 0 && c.state == StateSealing {
		c.cond.Broadcast()
	}
}

var _ Policy = (*CrossThread)(nil)
