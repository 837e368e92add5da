package binding

// State identifies where a binding is in its lifecycle.
type State int

const (
	// StateUnsealed accepts new references.
	StateUnsealed State = iota
	// StateSealing is the one-way latch: a seal was requested while
	// references were outstanding. No acquire can succeed from here on,
	// even if it races the moment the count reaches zero.
	StateSealing
	// StateSealed is terminal. The count is zero and can never leave it.
	StateSealed
)

func (s State) String() string {
	switch s {
	case StateUnsealed:
		return "unsealed"
	case StateSealing:
		return "sealing"
	case StateSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Policy is the contract between one owner and the handles minted from it.
// Implementations differ only in how they count and how Seal behaves when
// references are still outstanding; the transition rules are shared:
//
//   - Acquire is only valid while unsealed and moves Unsealed(n) to
//     Unsealed(n+1). It fails with a severed error once sealing begins.
//   - Release moves Unsealed(n) to Unsealed(n-1); the release that reaches
//     zero while a seal is pending completes the seal.
//   - Seal transitions to Sealed immediately when the count is zero.
//     With outstanding references the behavior is per-policy: Manual and
//     SingleThread treat it as an unrecoverable programmer error and panic,
//     CrossThread suspends the caller until the count drains.
type Policy interface {
	// ID returns the identity token minted for this binding. Redeem uses it
	// to reject a handle paired against the wrong owner.
	ID() string

	// Name returns the policy selector name ("manual", "single_thread",
	// "cross_thread").
	Name() string

	// Cloneable reports whether handles bound through this policy may be
	// duplicated. Only the counted policies support cloning.
	Cloneable() bool

	// RequiresRedeem reports whether minted handles must be reconciled
	// through an explicit redeem step before the owner may seal.
	RequiresRedeem() bool

	// Acquire registers one short-lived guard reference.
	Acquire() error

	// Release returns one guard reference taken with Acquire.
	Release()

	// Issue registers one minted handle.
	Issue() error

	// Retire returns one handle reference taken with Issue. It fails with
	// an invalid-redeem error when no handle reference is outstanding.
	Retire() error

	// Seal permanently invalidates the binding. It reports true when this
	// call performed the seal and false when the binding was already
	// severed by an earlier call.
	Seal() bool

	// Severed reports whether sealing has begun. Severed is terminal: once
	// observed, every later Acquire and Issue fails.
	Severed() bool

	// Outstanding returns the current reference count. It is advisory under
	// the cross-thread policy, where the value may be stale by the time the
	// caller inspects it.
	Outstanding() int
}

// New returns a policy instance for the given selector name.
func New(name string) (Policy, error) {
	switch name {
	case PolicyManual:
		return NewManual(), nil
	case PolicySingleThread:
		return NewSingleThread(), nil
	case PolicyCrossThread:
		return NewCrossThread(), nil
	default:
		return nil, newBadUsageError("binding: unknown policy: " + name)
	}
}

// Policy selector names accepted by New and carried in binding events.
const (
	PolicyManual       = "manual"
	PolicySingleThread = "single_thread"
	PolicyCrossThread  = "cross_thread"
)
