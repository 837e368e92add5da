package core

import (
	"testing"

	"github.com/goliatone/go-tether/binding"
)

func newSupervisedOwner(t *testing.T, supervisor *Supervisor, name string) *Owner[string] {
	t.Helper()
	owner, err := NewOwner("payload",
		WithPolicyName(binding.PolicySingleThread),
		WithOwnerName(name),
		WithSupervisorRegistry(supervisor),
	)
	if err != nil {
		t.Fatalf("new owner: %v", err)
	}
	if err := owner.Fix(); err != nil {
		t.Fatalf("fix: %v", err)
	}
	return owner
}

func TestSupervisor_ListOrderedByBindingID(t *testing.T) {
	supervisor := NewSupervisor()
	for _, name := range []string{"first", "second", "third"} {
		newSupervisedOwner(t, supervisor, name)
	}

	listed := supervisor.List()
	if len(listed) != 3 {
		t.Fatalf("expected 3 owners, got %d", len(listed))
	}
	for idx := 1; idx < len(listed); idx++ {
		if listed[idx-1].BindingID() >= listed[idx].BindingID() {
			t.Fatalf("expected list ordered by binding id")
		}
	}
}

func TestSupervisor_SeverByBindingID(t *testing.T) {
	supervisor := NewSupervisor()
	owner := newSupervisedOwner(t, supervisor, "target")

	sealed, err := supervisor.Sever(owner.BindingID())
	if err != nil {
		t.Fatalf("sever: %v", err)
	}
	if !sealed {
		t.Fatalf("expected sever to perform the seal")
	}
	if _, err := supervisor.Get(owner.BindingID()); err == nil {
		t.Fatalf("expected owner removed after sever")
	}
}

func TestSupervisor_SeverUnknownBindingFails(t *testing.T) {
	supervisor := NewSupervisor()
	if _, err := supervisor.Sever("no-such-binding"); err == nil {
		t.Fatalf("expected unknown binding to fail")
	} else if textCodeOf(err) != TetherErrorBindingNotFound {
		t.Fatalf("expected binding-not-found code, got %q", textCodeOf(err))
	}
}

func TestSupervisor_SeverAllCountsSeals(t *testing.T) {
	supervisor := NewSupervisor()
	owners := []*Owner[string]{
		newSupervisedOwner(t, supervisor, "a"),
		newSupervisedOwner(t, supervisor, "b"),
		newSupervisedOwner(t, supervisor, "c"),
	}
	// one owner is already severed before the sweep
	owners[1].Sever()

	if sealed := supervisor.SeverAll(); sealed != 2 {
		t.Fatalf("expected 2 seals, got %d", sealed)
	}
	if remaining := supervisor.List(); len(remaining) != 0 {
		t.Fatalf("expected empty supervisor after sweep, got %d", len(remaining))
	}
}
