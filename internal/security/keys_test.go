package security

import (
	"path/filepath"
	"testing"
	"time"
)

func TestGenerateAndLoadKeyPairRoundTrip(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(privPath, pubPath); err != nil {
		t.Fatalf("generate key pair: %v", err)
	}

	keys, err := LoadKeyPair(privPath, pubPath)
	if err != nil {
		t.Fatalf("load key pair: %v", err)
	}
	if keys.Private == nil || keys.Public == nil {
		t.Fatal("expected both keys loaded")
	}

	// Loaded pair must sign tokens the public half verifies.
	mgr := NewJWTManager("iss", "aud", keys)
	raw, err := mgr.Sign(1, "creator", time.Minute)
	if err != nil {
		t.Fatalf("sign with loaded keys: %v", err)
	}
	if _, err := mgr.Parse(raw); err != nil {
		t.Fatalf("parse with loaded keys: %v", err)
	}
}

func TestGenerateKeyPairRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(privPath, pubPath); err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	if err := GenerateKeyPair(privPath, pubPath); err == nil {
		t.Fatal("expected second generation to refuse overwriting existing keys")
	}
}

func TestLoadKeyPairMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadKeyPair(filepath.Join(dir, "nope.pem"), filepath.Join(dir, "nope-pub.pem")); err == nil {
		t.Fatal("expected missing key files to fail")
	}
}
