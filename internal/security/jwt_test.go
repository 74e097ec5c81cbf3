package security_test

import (
	"errors"
	"testing"
	"time"

	"github.com/eatsy/identity-service/internal/security"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	ti := security.NewTokenIssuer("secret", 7*24*time.Hour)

	tok, err := ti.IssueSession("user-1")
	if err != nil {
		t.Fatal(err)
	}
	uid, err := ti.Verify(tok, security.PurposeSession)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("subject mismatch: %q", uid)
	}
}

func TestPurposeIsolation(t *testing.T) {
	ti := security.NewTokenIssuer("secret", 7*24*time.Hour)

	proof, err := ti.IssueProof("user-1", security.PurposePasswordReset, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ti.Verify(proof, security.PurposeSession); !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("proof accepted as session: %v", err)
	}

	session, err := ti.IssueSession("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ti.Verify(session, security.PurposePasswordReset); !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("session accepted as reset proof: %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	now := time.Now()
	ti := security.NewTokenIssuer("secret", 7*24*time.Hour).
		WithClock(func() time.Time { return now })

	tok, err := ti.IssueProof("user-1", security.PurposePasswordReset, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(6 * time.Minute)
	if _, err := ti.Verify(tok, security.PurposePasswordReset); !errors.Is(err, security.ErrExpiredToken) {
		t.Fatalf("want expired, got %v", err)
	}
}

func TestWrongSecretAndMalformed(t *testing.T) {
	a := security.NewTokenIssuer("secret-a", time.Hour)
	b := security.NewTokenIssuer("secret-b", time.Hour)

	tok, err := a.IssueSession("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Verify(tok, security.PurposeSession); !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("cross-secret token accepted: %v", err)
	}
	if _, err := a.Verify("not.a.jwt", security.PurposeSession); !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("malformed token accepted: %v", err)
	}
}
