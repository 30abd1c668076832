package core

import "sync"

// AccountIdentity pairs a derived account id with the credential it came from.
type AccountIdentity struct {
	AccountID  string `json:"account_id"`
	Credential string `json:"-"`
}

// Session holds the per-login state shared by refresh cycles: the resolved
// identity and the classified billing model. Both are dropped together by
// Logout. Writers pass the generation they observed when they started so a
// cycle that began before a logout cannot repopulate the session.
type Session struct {
	mu         sync.RWMutex
	identity   *AccountIdentity
	model      BillingModel
	generation uint64
}

// Invalidation describes what a Logout cleared.
type Invalidation struct {
	AccountID   string
	Model       BillingModel
	HadIdentity bool
	Generation  uint64
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Session) Identity() (AccountIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return AccountIdentity{}, false
	}
	return *s.identity, true
}

// SetIdentity stores id unless the session was invalidated after gen.
func (s *Session) SetIdentity(gen uint64, id AccountIdentity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	if s.identity != nil && s.identity.AccountID != id.AccountID {
		// different account: the cached classification belongs to the old one
		s.model = ""
	}
	s.identity = &id
	return true
}

func (s *Session) BillingModel() (BillingModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, s.model != ""
}

func (s *Session) SetBillingModel(gen uint64, m BillingModel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.model = m
	return true
}

// Logout clears identity and billing model and bumps the generation.
func (s *Session) Logout() Invalidation {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := Invalidation{Model: s.model, HadIdentity: s.identity != nil}
	if s.identity != nil {
		inv.AccountID = s.identity.AccountID
	}
	s.identity = nil
	s.model = ""
	s.generation++
	inv.Generation = s.generation
	return inv
}
