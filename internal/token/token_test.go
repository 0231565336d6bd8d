package token

import (
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func TestGenerateLengthAndEncoding(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	tok, err := codec.Generate(DefaultLength)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) != DefaultLength {
		t.Fatalf("expected %d raw bytes, got %d", DefaultLength, len(raw))
	}
}

func TestGenerateIsUnique(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		tok, err := codec.Generate(DefaultLength)
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if seen[tok] {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = true
	}
}

func TestFingerprintDeterministicAndKeyed(t *testing.T) {
	a := NewCodec([]byte("key-a"))
	b := NewCodec([]byte("key-b"))

	if a.Fingerprint("tok") != a.Fingerprint("tok") {
		t.Fatal("fingerprint must be deterministic for a fixed token+key")
	}
	if a.Fingerprint("tok") == b.Fingerprint("tok") {
		t.Fatal("fingerprint must depend on the key")
	}
	if a.Fingerprint("tok") == a.Fingerprint("tok2") {
		t.Fatal("fingerprint must depend on the token")
	}

	raw, err := hex.DecodeString(a.Fingerprint("tok"))
	if err != nil {
		t.Fatalf("fingerprint is not hex: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32-byte digest, got %d", len(raw))
	}
}
