package operator

import "testing"

func TestValidateUsername(t *testing.T) {
	ok := []string{"alice", "net-ops", "admin.01", "viewer_2"}
	for _, v := range ok {
		if err := ValidateUsername(v); err != nil {
			t.Fatalf("expected valid username %q: %v", v, err)
		}
	}
	bad := []string{"", "ab", "1admin", "Admin", "bad space", "toolongusernametoolongusernametoo"}
	for _, v := range bad {
		if err := ValidateUsername(v); err == nil {
			t.Fatalf("expected invalid username %q", v)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "correct-horse-battery") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("expected wrong password to fail")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole(RoleAdmin); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := ValidateRole(RoleViewer); err != nil {
		t.Fatalf("viewer: %v", err)
	}
	if err := ValidateRole("ROOT"); err == nil {
		t.Fatal("expected invalid role")
	}
}
