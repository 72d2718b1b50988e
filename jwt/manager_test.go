package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

func newHS256Manager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "goguard-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestManager_HS256RoundTrip(t *testing.T) {
	m := newHS256Manager(t)

	token, err := m.Issue("u1", "editor", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UID != "u1" || claims.SID != "sid-1" || claims.Role != "editor" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestManager_Ed25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	m, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Issue("u1", "admin", "sid-9")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SID != "sid-9" {
		t.Fatalf("expected sid-9, got %s", claims.SID)
	}
}

func TestManager_RejectsBadSignature(t *testing.T) {
	m := newHS256Manager(t)
	other, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("a-completely-different-secret-key"),
		Issuer:        "goguard-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, _ := other.Issue("u1", "editor", "sid-1")
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	m, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Now:           func() time.Time { return past },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, _ := m.Issue("u1", "editor", "sid-1")
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expiry failure")
	}
}

func TestManager_RejectsEmptySessionBinding(t *testing.T) {
	m := newHS256Manager(t)

	token, err := m.Issue("u1", "editor", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected rejection of token without session id")
	}
}

func TestManager_VerifyKeysRotation(t *testing.T) {
	pubA, privA, _ := ed25519.GenerateKey(rand.Reader)
	pubB, _, _ := ed25519.GenerateKey(rand.Reader)

	signer, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    privA,
		KeyID:         "2025-06",
		VerifyKeys: map[string][]byte{
			"2025-05": pubB,
			"2025-06": pubA,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := signer.Issue("u1", "editor", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := signer.Parse(token); err != nil {
		t.Fatalf("parse with kid lookup: %v", err)
	}

	// A verifier without the signing kid rejects the token.
	verifier, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		VerifyKeys:    map[string][]byte{"2025-05": pubB},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatal("expected unknown kid rejection")
	}
}

func TestNewManager_Validation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}); err == nil {
		t.Fatal("expected error for zero TTL")
	}
	if _, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256}); err == nil {
		t.Fatal("expected error for missing hs256 key")
	}
	if _, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodEd25519}); err == nil {
		t.Fatal("expected error for ed25519 without verify material")
	}
	if _, err := NewManager(Config{TTL: time.Hour, SigningMethod: "rs512"}); err == nil {
		t.Fatal("expected error for unsupported method")
	}
	if _, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("k"),
		Leeway:        3 * time.Minute,
	}); err == nil {
		t.Fatal("expected error for excessive leeway")
	}
}
