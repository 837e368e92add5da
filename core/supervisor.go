package core

import (
	"sort"
	"strings"
	"sync"
)

// Supervisor indexes live owners by binding identity so operational surfaces
// can inspect and sever bindings without holding typed owner references.
// Owners register themselves when fixed and deregister when severed.
type Supervisor struct {
	mu     sync.RWMutex
	owners map[string]OwnerRef
}

func NewSupervisor() *Supervisor {
	return &Supervisor{
		owners: map[string]OwnerRef{},
	}
}

func (s *Supervisor) Register(owner OwnerRef) {
	if s == nil || owner == nil {
		return
	}
	id := strings.TrimSpace(owner.BindingID())
	if id == "" {
		return
	}
	s.mu.Lock()
	if s.owners == nil {
		s.owners = map[string]OwnerRef{}
	}
	s.owners[id] = owner
	s.mu.Unlock()
}

func (s *Supervisor) Deregister(bindingID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.owners, strings.TrimSpace(bindingID))
	s.mu.Unlock()
}

// Get resolves a live owner by binding identity.
func (s *Supervisor) Get(bindingID string) (OwnerRef, error) {
	if s == nil {
		return nil, badUsageError("core: supervisor is required")
	}
	s.mu.RLock()
	owner, ok := s.owners[strings.TrimSpace(bindingID)]
	s.mu.RUnlock()
	if !ok {
		return nil, bindingNotFoundError("core: binding %q is not registered", bindingID)
	}
	return owner, nil
}

// List returns live owners ordered by binding identity.
func (s *Supervisor) List() []OwnerRef {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.owners))
	for id := range s.owners {
		ids = append(ids, id)
	}
	owners := make(map[string]OwnerRef, len(s.owners))
	for id, owner := range s.owners {
		owners[id] = owner
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	out := make([]OwnerRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, owners[id])
	}
	return out
}

// Sever seals the binding with the given identity. The bool reports whether
// this call performed the seal.
func (s *Supervisor) Sever(bindingID string) (bool, error) {
	owner, err := s.Get(bindingID)
	if err != nil {
		return false, err
	}
	return owner.Sever(), nil
}

// SeverAll seals every live binding and reports how many seals this call
// performed. Bindings under the cross-thread policy may block until their
// references drain.
func (s *Supervisor) SeverAll() int {
	sealed := 0
	for _, owner := range s.List() {
		if owner.Sever() {
			sealed++
		}
	}
	return sealed
}
