package auth

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(testSecret, "daybook", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}

	tok, err := svc.Create("acct-1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := svc.ParseAccountID(tok)
	if err != nil {
		t.Fatalf("ParseAccountID error: %v", err)
	}
	if got != "acct-1" {
		t.Fatalf("account = %q, want %q", got, "acct-1")
	}
}

func TestTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("too-short", "daybook", time.Hour); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	issuing, err := NewTokenService(testSecret, "daybook", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	issuing.ttl = -time.Minute

	tok, err := issuing.Create("acct-1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := issuing.ParseAccountID(tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenService_RejectsForeignIssuer(t *testing.T) {
	a, err := NewTokenService(testSecret, "daybook", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	b, err := NewTokenService(testSecret, "other", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}

	tok, err := b.Create("acct-1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := a.ParseAccountID(tok); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}
}
