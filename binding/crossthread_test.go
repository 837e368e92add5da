package binding

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCrossThread_SealWaitsForConcurrentReleases(t *testing.T) {
	policy := NewCrossThread()

	const borrowers = 8
	var wg sync.WaitGroup
	var released atomic.Int32
	for i := 0; i < borrowers; i++ {
		if err := policy.Acquire(); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(10 * time.Millisecond)
			released.Add(1)
			policy.Release()
		}()
	}

	sealed := policy.Seal()
	if !sealed {
		t.Fatalf("expected seal to report first completion")
	}
	if got := released.Load(); got != borrowers {
		t.Fatalf("seal completed before all releases: %d of %d", got, borrowers)
	}
	wg.Wait()
	if policy.Outstanding() != 0 {
		t.Fatalf("expected drained count, got %d", policy.Outstanding())
	}
}

func TestCrossThread_AcquireFailsOnceSealingBegins(t *testing.T) {
	policy := NewCrossThread()
	if err := policy.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	sealStarted := make(chan struct{})
	sealDone := make(chan struct{})
	go func() {
		close(sealStarted)
		policy.Seal()
		close(sealDone)
	}()

	<-sealStarted
	// Wait for the sealer to latch the binding shut.
	deadline := time.Now().Add(time.Second)
	for !policy.Severed() {
		if time.Now().After(deadline) {
			t.Fatalf("seal never latched")
		}
		time.Sleep(time.Millisecond)
	}

	if err := policy.Acquire(); !IsSevered(err) {
		t.Fatalf("expected severed error during sealing, got %v", err)
	}

	policy.Release()
	select {
	case <-sealDone:
	case <-time.After(time.Second):
		t.Fatalf("seal did not complete after final release")
	}
}

func TestCrossThread_ConcurrentSealSingleWinner(t *testing.T) {
	policy := NewCrossThread()

	const sealers = 4
	var first atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < sealers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if policy.Seal() {
				first.Add(1)
			}
		}()
	}
	wg.Wait()
	if first.Load() != 1 {
		t.Fatalf("expected exactly one winning seal, got %d", first.Load())
	}
}

func TestCrossThread_InterleavedAcquireRelease(t *testing.T) {
	policy := NewCrossThread()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := policy.Acquire(); err != nil {
					t.Errorf("acquire: %v", err)
					return
				}
				policy.Release()
			}
		}()
	}
	wg.Wait()

	if policy.Outstanding() != 0 {
		t.Fatalf("expected zero outstanding after balanced ops, got %d", policy.Outstanding())
	}
	if !policy.Seal() {
		t.Fatalf("expected drained binding to seal without suspension")
	}
}

func TestCrossThread_RetireReleasesHandleReference(t *testing.T) {
	policy := NewCrossThread()
	if err := policy.Issue(); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := policy.Retire(); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := policy.Retire(); !IsInvalidRedeem(err) {
		t.Fatalf("expected invalid redeem after drain, got %v", err)
	}
}
