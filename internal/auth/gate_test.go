package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGateAcceptsConfiguredKeys(t *testing.T) {
	gate := NewGate([]string{"alpha", " beta ", ""})
	if gate.Size() != 2 {
		t.Fatalf("expected 2 keys, got %d", gate.Size())
	}
	for _, key := range []string{"alpha", "beta"} {
		if !gate.Authorize(key) {
			t.Fatalf("expected %q to be accepted", key)
		}
	}
	for _, key := range []string{"", "   ", "gamma", "alphaX", "ALPHA"} {
		if gate.Authorize(key) {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestGateWithoutKeysRejectsEverything(t *testing.T) {
	gate := NewGate(nil)
	if gate.Authorize("anything") {
		t.Fatal("expected empty gate to reject")
	}
	var nilGate *Gate
	if nilGate.Authorize("anything") {
		t.Fatal("expected nil gate to reject")
	}
}

func TestGateBcryptKeys(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	gate := NewGate([]string{string(hash)})
	if !gate.Authorize("s3cret") {
		t.Fatal("expected bcrypt key to be accepted")
	}
	if gate.Authorize(string(hash)) {
		t.Fatal("the hash itself must not be a valid credential")
	}
	if gate.Authorize("wrong") {
		t.Fatal("expected wrong key to be rejected")
	}
}

func TestHashKeyRoundTrip(t *testing.T) {
	hash, err := HashKey("key-1")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}
	if !NewGate([]string{hash}).Authorize("key-1") {
		t.Fatal("expected hashed key to authorize")
	}
}

func TestCredential(t *testing.T) {
	cases := map[string]string{
		"key":            "key",
		"  key  ":        "key",
		"Bearer key":     "key",
		"bearer   key ":  "key",
		"Bearer":         "Bearer",
		"":               "",
		"Basic dXNlcjpw": "Basic dXNlcjpw",
	}
	for header, want := range cases {
		if got := Credential(header); got != want {
			t.Errorf("Credential(%q) = %q, want %q", header, got, want)
		}
	}
}
