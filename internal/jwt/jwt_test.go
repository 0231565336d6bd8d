package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))

	tok, err := issuer.Issue("user-1", 15*time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Trial() {
		t.Fatal("unexpected trial claim")
	}
	if remaining := time.Until(claims.Expiry); remaining <= 0 || remaining > 15*time.Minute {
		t.Fatalf("unexpected expiry window: %v", remaining)
	}
}

func TestTrialClaimRoundTrip(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))

	tok, err := issuer.Issue("user-1", 24*time.Hour, map[string]any{TrialClaim: true})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !claims.Trial() {
		t.Fatal("expected trial claim to survive the round trip")
	}
}

func TestExtraClaimsCannotShadowReserved(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))

	tok, err := issuer.Issue("user-1", time.Minute, map[string]any{"sub": "other-user"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("reserved sub claim was shadowed: %q", claims.Subject)
	}
}

func TestVerifyFailuresAreUniform(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))
	other := NewIssuer([]byte("other-secret"))

	expired, err := issuer.Issue("user-1", -time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	forged, err := other.Issue("user-1", time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	for _, tok := range []string{expired, forged, "garbage", ""} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}
