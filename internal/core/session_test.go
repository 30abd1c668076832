package core

import "testing"

func TestSession_LogoutClearsIdentityAndModel(t *testing.T) {
	s := NewSession()
	gen := s.Generation()
	if !s.SetIdentity(gen, AccountIdentity{AccountID: "user_A", Credential: "user_A::tok"}) {
		t.Fatal("SetIdentity rejected current generation")
	}
	if !s.SetBillingModel(gen, BillingPro) {
		t.Fatal("SetBillingModel rejected current generation")
	}

	inv := s.Logout()
	if inv.AccountID != "user_A" || inv.Model != BillingPro || !inv.HadIdentity {
		t.Errorf("unexpected invalidation %+v", inv)
	}
	if _, ok := s.Identity(); ok {
		t.Error("identity survived logout")
	}
	if _, ok := s.BillingModel(); ok {
		t.Error("billing model survived logout")
	}
	if inv.Generation != gen+1 {
		t.Errorf("generation = %d, want %d", inv.Generation, gen+1)
	}
}

func TestSession_StaleWritersAreRejected(t *testing.T) {
	s := NewSession()
	stale := s.Generation()
	s.Logout()

	if s.SetIdentity(stale, AccountIdentity{AccountID: "user_old"}) {
		t.Error("stale cycle repopulated identity")
	}
	if s.SetBillingModel(stale, BillingBusiness) {
		t.Error("stale cycle repopulated billing model")
	}
	if _, ok := s.Identity(); ok {
		t.Error("identity should still be empty")
	}
}

func TestSession_AccountSwitchDropsModel(t *testing.T) {
	s := NewSession()
	gen := s.Generation()
	s.SetIdentity(gen, AccountIdentity{AccountID: "user_A"})
	s.SetBillingModel(gen, BillingBusiness)

	s.SetIdentity(gen, AccountIdentity{AccountID: "user_B"})
	if _, ok := s.BillingModel(); ok {
		t.Error("billing model of previous account was kept")
	}
}
