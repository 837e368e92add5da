package binding

import "github.com/google/uuid"

// Manual is the zero-overhead policy: it performs no reference counting and
// no synchronization. At most one handle may be outstanding at a time, and
// that handle must be reconciled through an explicit redeem step before the
// owner seals. An unreconciled seal panics; the panic is never recovered by
// the library because the alternative is a dangling handle.
//
// Guards borrowed through a manual binding are not tracked either. The caller
// accepts the discipline of not holding one past the owner's scope; misuse is
// only detectable at teardown, and only for the handle, which is exactly the
// documented contract of this variant.
//
// Manual is not safe for concurrent use.
type Manual struct {
	id          string
	outstanding bool
	sealed      bool
}

// NewManual returns an unsealed manual binding.
func NewManual() *Manual {
	return &Manual{id: uuid.NewString()}
}

func (m *Manual) ID() string { return m.id }

func (m *Manual) Name() string { return PolicyManual }

func (m *Manual) Cloneable() bool { return false }

func (m *Manual) RequiresRedeem() bool { return true }

// Acquire only validates that the binding is still unsealed. Guard
// references are not counted under this policy.
func (m *Manual) Acquire() error {
	if m.sealed {
		return newSeveredError("binding: manual binding is severed")
	}
	return nil
}

// Release is a no-op: Acquire did not count.
func (m *Manual) Release() {}

func (m *Manual) Issue() error {
	if m.sealed {
		return newSeveredError("binding: manual binding is severed")
	}
	if m.outstanding {
		return newBadUsageError("binding: manual binding allows a single outstanding handle")
	}
	m.outstanding = true
	return nil
}

func (m *Manual) Retire() error {
	if !m.outstanding {
		return newInvalidRedeemError("binding: manual binding has no outstanding handle to redeem")
	}
	m.outstanding = false
	return nil
}

// Seal panics when the minted handle was never redeemed.
func (m *Manual) Seal() bool {
	if m.sealed {
		return false
	}
	if m.outstanding {
		panic(unreconciledTeardownError(PolicyManual, 1))
	}
	m.sealed = true
	return true
}

func (m *Manual) Severed() bool { return m.sealed }

func (m *Manual) Outstanding() int {
	if m.outstanding {
		return 1
	}
	return 0
}

var _ Policy = (*Manual)(nil)
