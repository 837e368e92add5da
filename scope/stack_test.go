package scope

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tether/binding"
	"github.com/goliatone/go-tether/core"
)

func textCodeOf(t *testing.T, err error) string {
	t.Helper()
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %T: %v", err, err)
	}
	return richErr.TextCode
}

func TestStack_EnterAndLeaveTrackDepth(t *testing.T) {
	stack := NewStack[string]()
	if stack.Depth() != 0 {
		t.Fatalf("expected empty stack, depth=%d", stack.Depth())
	}

	outer, err := stack.Enter("outer")
	if err != nil {
		t.Fatalf("enter outer: %v", err)
	}
	inner, err := stack.Enter("inner")
	if err != nil {
		t.Fatalf("enter inner: %v", err)
	}
	if stack.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", stack.Depth())
	}

	if err := inner.Leave(); err != nil {
		t.Fatalf("leave inner: %v", err)
	}
	if err := outer.Leave(); err != nil {
		t.Fatalf("leave outer: %v", err)
	}
	if stack.Depth() != 0 {
		t.Fatalf("expected empty stack after leaves, depth=%d", stack.Depth())
	}
}

func TestStack_CurrentBindsInnermost(t *testing.T) {
	stack := NewStack[string]()
	if _, ok := stack.Current(); ok {
		t.Fatalf("expected no current handle on empty stack")
	}

	outer, err := stack.Enter("outer")
	if err != nil {
		t.Fatalf("enter outer: %v", err)
	}
	defer outer.Leave()

	inner, err := stack.Enter("inner")
	if err != nil {
		t.Fatalf("enter inner: %v", err)
	}

	handle, ok := stack.Current()
	if !ok {
		t.Fatalf("expected current handle")
	}
	guard, err := handle.Borrow()
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if got := *guard.Value(); got != "inner" {
		t.Fatalf("expected innermost value, got %q", got)
	}
	guard.Release()

	if err := inner.Leave(); err != nil {
		t.Fatalf("leave inner: %v", err)
	}

	handle, ok = stack.Current()
	if !ok {
		t.Fatalf("expected current handle after pop")
	}
	guard, err = handle.Borrow()
	if err != nil {
		t.Fatalf("borrow after pop: %v", err)
	}
	if got := *guard.Value(); got != "outer" {
		t.Fatalf("expected outer value after pop, got %q", got)
	}
	guard.Release()
}

func TestStack_WithMutatesInnermostValue(t *testing.T) {
	stack := NewStack[[]string]()
	sc, err := stack.Enter([]string{"a"})
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	defer sc.Leave()

	if err := stack.With(func(value *[]string) error {
		*value = append(*value, "b")
		return nil
	}); err != nil {
		t.Fatalf("with: %v", err)
	}

	if err := stack.With(func(value *[]string) error {
		if len(*value) != 2 || (*value)[1] != "b" {
			t.Fatalf("expected mutation to persist, got %v", *value)
		}
		return nil
	}); err != nil {
		t.Fatalf("second with: %v", err)
	}
}

func TestStack_WithOnEmptyStackIsBadUsage(t *testing.T) {
	stack := NewStack[int]()
	err := stack.With(func(*int) error { return nil })
	if err == nil {
		t.Fatalf("expected error on empty stack")
	}
	if code := textCodeOf(t, err); code != core.TetherErrorBadUsage {
		t.Fatalf("expected bad usage text code, got %q", code)
	}
}

func TestStack_EachWalksInnermostFirst(t *testing.T) {
	stack := NewStack[string]()
	for _, name := range []string{"root", "middle", "leaf"} {
		if _, err := stack.Enter(name); err != nil {
			t.Fatalf("enter %s: %v", name, err)
		}
	}

	var seen []string
	if err := stack.Each(func(value *string) error {
		seen = append(seen, *value)
		return nil
	}); err != nil {
		t.Fatalf("each: %v", err)
	}

	want := []string{"leaf", "middle", "root"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d frames, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected chain %v, got %v", want, seen)
		}
	}
}

func TestScope_OutOfOrderLeaveFails(t *testing.T) {
	stack := NewStack[string]()
	outer, err := stack.Enter("outer")
	if err != nil {
		t.Fatalf("enter outer: %v", err)
	}
	inner, err := stack.Enter("inner")
	if err != nil {
		t.Fatalf("enter inner: %v", err)
	}

	err = outer.Leave()
	if err == nil {
		t.Fatalf("expected out-of-order leave to fail")
	}
	if code := textCodeOf(t, err); code != core.TetherErrorBadUsage {
		t.Fatalf("expected bad usage text code, got %q", code)
	}
	if stack.Depth() != 2 {
		t.Fatalf("expected failed leave to keep both frames, depth=%d", stack.Depth())
	}

	if err := inner.Leave(); err != nil {
		t.Fatalf("leave inner: %v", err)
	}
	if err := outer.Leave(); err != nil {
		t.Fatalf("leave outer after inner: %v", err)
	}
}

func TestScope_LeaveTwiceFails(t *testing.T) {
	stack := NewStack[int]()
	sc, err := stack.Enter(1)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := sc.Leave(); err != nil {
		t.Fatalf("first leave: %v", err)
	}
	if err := sc.Leave(); err == nil {
		t.Fatalf("expected second leave to fail")
	}
}

func TestScope_LeaveWaitsForOutstandingGuards(t *testing.T) {
	stack := NewStack[int]()
	sc, err := stack.Enter(42)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	handle, ok := stack.Current()
	if !ok {
		t.Fatalf("expected current handle")
	}
	guard, err := handle.Borrow()
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}

	var released atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		released.Store(true)
		guard.Release()
	}()

	if err := sc.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !released.Load() {
		t.Fatalf("expected leave to block until the guard was released")
	}
	wg.Wait()
}

func TestStack_PolicyOptionFlowsToOwners(t *testing.T) {
	stack := NewStack[int](WithStackPolicy(binding.PolicySingleThread))
	sc, err := stack.Enter(1)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if got := sc.Owner().PolicyName(); got != binding.PolicySingleThread {
		t.Fatalf("expected stack policy on owner, got %s", got)
	}
	if err := sc.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
}

func TestStack_ManualPolicyLeaveReconcilesItsOwnHandle(t *testing.T) {
	stack := NewStack[string](WithStackPolicy(binding.PolicyManual))
	sc, err := stack.Enter("manual-value")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			t.Fatalf("leave panicked under manual policy: %v", recovered)
		}
	}()
	if err := sc.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if stack.Depth() != 0 {
		t.Fatalf("expected empty stack after leave, depth=%d", stack.Depth())
	}
	if sc.Owner().Bound() {
		t.Fatalf("expected owner sealed after leave")
	}
}

func TestStack_ManualPolicyCurrentAndWithShareTheFrameHandle(t *testing.T) {
	stack := NewStack[int](WithStackPolicy(binding.PolicyManual))
	sc, err := stack.Enter(9)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	handle, ok := stack.Current()
	if !ok {
		t.Fatalf("expected current handle under manual policy")
	}
	if handle != sc.Handle() {
		t.Fatalf("expected current to share the scope's handle")
	}

	if err := stack.With(func(value *int) error {
		*value = 10
		return nil
	}); err != nil {
		t.Fatalf("with under manual policy: %v", err)
	}
	if err := stack.Each(func(value *int) error {
		if *value != 10 {
			t.Fatalf("expected mutated value, got %d", *value)
		}
		return nil
	}); err != nil {
		t.Fatalf("each under manual policy: %v", err)
	}

	if err := sc.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
}
