package binding

import "github.com/google/uuid"

// SingleThread counts references without synchronization. The soundness of
// the non-atomic count rests on an externally enforced guarantee: the binding
// and everything minted from it stay on one goroutine. The policy does not
// check that confinement; it only checks the count at seal time, where a
// non-zero value can solely be a same-goroutine ordering bug and is treated
// as unrecoverable.
type SingleThread struct {
	id     string
	count  int
	sealed bool
}

// NewSingleThread returns an unsealed single-thread counted binding.
func NewSingleThread() *SingleThread {
	return &SingleThread{id: uuid.NewString()}
}

func (s *SingleThread) ID() string { return s.id }

func (s *SingleThread) Name() string { return PolicySingleThread }

func (s *SingleThread) Cloneable() bool { return true }

func (s *SingleThread) RequiresRedeem() bool { return false }

func (s *SingleThread) Acquire() error {
	if s.sealed {
		return newSeveredError("binding: single-thread binding is severed")
	}
	s.count++
	return nil
}

func (s *SingleThread) Release() {
	if s.count > 0 {
		s.count--
	}
}

func (s *SingleThread) Issue() error {
	return s.Acquire()
}

func (s *SingleThread) Retire() error {
	if s.count == 0 {
		return newInvalidRedeemError("binding: single-thread binding has no outstanding reference to redeem")
	}
	s.count--
	return nil
}

// Seal panics when references are outstanding: this policy cannot drain them
// safely, and completing the seal anyway would leave dangling handles.
func (s *SingleThread) Seal() bool {
	if s.sealed {
		return false
	}
	if s.count > 0 {
		panic(unreconciledTeardownError(PolicySingleThread, s.count))
	}
	s.sealed = true
	return true
}

func (s *SingleThread) Severed() bool { return s.sealed }

func (s *SingleThread) Outstanding() int { return s.count }

var _ Policy = (*SingleThread)(nil)
