// Package scope maintains an explicit last-in-first-out chain of bound
// values. Each Enter pins a value under its own owner and pushes it; the
// returned Scope pops the frame and seals the owner on Leave. Callers
// thread the Stack through their code instead of relying on hidden
// per-goroutine storage, so teardown order is always visible at the call
// site.
package scope

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tether/core"
)

// Stack is a mutable chain of scoped values. The zero value is not
// usable; construct with NewStack.
type Stack[T any] struct {
	mu     sync.Mutex
	frames []*frame[T]

	policyName string
	runtime    *core.Runtime
}

type frame[T any] struct {
	owner  *core.Owner[T]
	handle *core.Handle[T]
}

// StackOption configures a Stack at construction time.
type StackOption func(*stackConfig)

type stackConfig struct {
	policyName string
	runtime    *core.Runtime
}

// WithStackPolicy sets the binding policy used for owners the stack
// creates. Unset, the stack inherits the runtime's default policy, or
// cross-thread with no runtime, so Leave waits for outstanding guards
// instead of panicking.
func WithStackPolicy(name string) StackOption {
	return func(c *stackConfig) {
		c.policyName = name
	}
}

// WithStackRuntime routes owner lifecycle events and supervision
// through the given runtime.
func WithStackRuntime(runtime *core.Runtime) StackOption {
	return func(c *stackConfig) {
		c.runtime = runtime
	}
}

func NewStack[T any](options ...StackOption) *Stack[T] {
	cfg := stackConfig{}
	for _, option := range options {
		if option != nil {
			option(&cfg)
		}
	}
	return &Stack[T]{
		policyName: cfg.policyName,
		runtime:    cfg.runtime,
	}
}

// Enter pins value under a fresh owner and pushes it onto the stack.
// The returned Scope must be left in reverse entry order.
func (s *Stack[T]) Enter(value T, options ...core.OwnerOption) (*Scope[T], error) {
	if s == nil {
		return nil, scopeUsageError("scope: stack is nil")
	}

	ownerOptions := make([]core.OwnerOption, 0, len(options)+2)
	if s.policyName != "" {
		ownerOptions = append(ownerOptions, core.WithPolicyName(s.policyName))
	}
	if s.runtime != nil {
		ownerOptions = append(ownerOptions, core.WithRuntime(s.runtime))
	}
	ownerOptions = append(ownerOptions, options...)

	owner, err := core.NewOwner(value, ownerOptions...)
	if err != nil {
		return nil, err
	}
	if err := owner.Fix(); err != nil {
		return nil, err
	}
	handle, err := owner.Bind()
	if err != nil {
		owner.Sever()
		return nil, err
	}

	fr := &frame[T]{owner: owner, handle: handle}
	s.mu.Lock()
	s.frames = append(s.frames, fr)
	depth := len(s.frames)
	s.mu.Unlock()

	return &Scope[T]{stack: s, frame: fr, depth: depth}, nil
}

// Current returns the innermost scope's handle. The handle is shared
// with the scope and stays valid until that scope leaves; callers
// borrow through it and must not sever it. The second return is false
// when the stack is empty. Sharing the frame's handle keeps the stack
// usable under the manual policy, which allows a single outstanding
// handle per binding.
func (s *Stack[T]) Current() (*core.Handle[T], bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	var top *frame[T]
	if n := len(s.frames); n > 0 {
		top = s.frames[n-1]
	}
	s.mu.Unlock()
	if top == nil {
		return nil, false
	}
	return top.handle, true
}

// With borrows the innermost value and runs fn against it, releasing
// the guard when fn returns.
func (s *Stack[T]) With(fn func(value *T) error) error {
	if fn == nil {
		return scopeUsageError("scope: with callback is required")
	}
	handle, ok := s.Current()
	if !ok {
		return scopeUsageError("scope: stack is empty")
	}
	guard, err := handle.Borrow()
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn(guard.Value())
}

// Each walks the chain from innermost to outermost, borrowing every
// frame's handle in turn. Walking stops at the first error.
func (s *Stack[T]) Each(fn func(value *T) error) error {
	if fn == nil {
		return scopeUsageError("scope: each callback is required")
	}
	s.mu.Lock()
	chain := make([]*frame[T], len(s.frames))
	copy(chain, s.frames)
	s.mu.Unlock()

	for i := len(chain) - 1; i >= 0; i-- {
		guard, err := chain[i].handle.Borrow()
		if err != nil {
			return err
		}
		err = fn(guard.Value())
		guard.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack[T]) Depth() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Scope is the proof one Enter produced. Leave pops it.
type Scope[T any] struct {
	stack *Stack[T]
	frame *frame[T]
	depth int
	left  atomic.Bool
}

// Handle exposes the scope's own handle, valid until Leave.
func (sc *Scope[T]) Handle() *core.Handle[T] {
	if sc == nil {
		return nil
	}
	return sc.frame.handle
}

// Owner exposes the scope's owner for supervision or redemption.
func (sc *Scope[T]) Owner() *core.Owner[T] {
	if sc == nil {
		return nil
	}
	return sc.frame.owner
}

// Leave pops the scope and seals its owner. Under the cross-thread
// policy this blocks until every outstanding guard is released. Leaving
// out of order fails without unwinding anything.
func (sc *Scope[T]) Leave() error {
	if sc == nil || sc.stack == nil {
		return scopeUsageError("scope: scope is nil")
	}
	if !sc.left.CompareAndSwap(false, true) {
		return scopeUsageError("scope: scope already left")
	}

	sc.stack.mu.Lock()
	n := len(sc.stack.frames)
	if n == 0 || sc.stack.frames[n-1] != sc.frame {
		sc.stack.mu.Unlock()
		sc.left.Store(false)
		return scopeUsageError(
			"scope: out-of-order leave for owner %q at depth %d",
			sc.frame.owner.OwnerName(), sc.depth,
		)
	}
	sc.stack.frames = sc.stack.frames[:n-1]
	sc.stack.mu.Unlock()

	// the manual policy refuses handle-side sever; the frame's own handle
	// must be reconciled through redeem before the owner can seal
	if !sc.frame.handle.Sever() {
		_, _ = core.Redeem(sc.frame.handle, sc.frame.owner)
	}
	sc.frame.owner.Sever()
	return nil
}

func scopeUsageError(format string, args ...any) error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.TetherErrorBadUsage)
}
