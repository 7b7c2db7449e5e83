package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"short":           false,
		"1234567890":      false,
		"correct-horse-9": true,
		"pässwörd":        true,
	}
	for pw, ok := range cases {
		err := security.ValidatePasswordStrength(pw)
		if ok && err != nil {
			t.Fatalf("expected %q to be accepted, got %v", pw, err)
		}
		if !ok && err == nil {
			t.Fatalf("expected %q to be rejected", pw)
		}
	}
}

func TestGenerateTokenIsURLSafeAndUnique(t *testing.T) {
	a, err := security.GenerateToken(24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := security.GenerateToken(24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 url-safe chars for 24 bytes, got %d", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token is not url-safe: %q", a)
	}
	if _, err := security.GenerateToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
