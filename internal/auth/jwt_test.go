package auth

import (
	"errors"
	"testing"
	"time"

	"momoledger/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	token, err := m.Issue(core.User{ID: 42, Username: "alice", Role: core.RoleAgent})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != core.RoleAgent {
		t.Errorf("claims = %+v, want id 42, alice, agent", claims)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager(testSecret, -time.Minute)

	token, err := m.Issue(core.User{ID: 1, Username: "alice", Role: core.RoleAgent})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): got %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewManager(testSecret, time.Hour)
	verifier := NewManager("another-secret-entirely!", time.Hour)

	token, err := issuer.Issue(core.User{ID: 1, Username: "alice", Role: core.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("cross-secret token: got %v, want ErrInvalidToken", err)
	}
}
