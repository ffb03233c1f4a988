package security

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"
)

func newTestKeyPair(t testing.TB) *KeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}
}

func TestJWTSignAndParse(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", newTestKeyPair(t))

	raw, err := mgr.Sign(42, "brand", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := mgr.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "42" || claims.Role != "brand" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	id, err := claims.SubjectUserID()
	if err != nil || id != 42 {
		t.Fatalf("SubjectUserID=%d err=%v", id, err)
	}
	if claims.ID == "" {
		t.Fatal("expected jti claim")
	}
}

func TestJWTTokensAreUniquePerSign(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", newTestKeyPair(t))
	a, err := mgr.Sign(1, "creator", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	b, err := mgr.Sign(1, "creator", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("expected distinct tokens for back-to-back signs")
	}
}

func TestJWTParseRejections(t *testing.T) {
	keys := newTestKeyPair(t)
	mgr := NewJWTManager("iss", "aud", keys)

	t.Run("expired", func(t *testing.T) {
		raw, err := mgr.Sign(1, "creator", -time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mgr.Parse(raw); err == nil {
			t.Fatal("expected expired token to fail")
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTManager("other-iss", "aud", keys)
		raw, err := other.Sign(1, "creator", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mgr.Parse(raw); err == nil {
			t.Fatal("expected issuer mismatch to fail")
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTManager("iss", "other-aud", keys)
		raw, err := other.Sign(1, "creator", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mgr.Parse(raw); err == nil {
			t.Fatal("expected audience mismatch to fail")
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTManager("iss", "aud", newTestKeyPair(t))
		raw, err := other.Sign(1, "creator", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mgr.Parse(raw); err == nil {
			t.Fatal("expected signature mismatch to fail")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := mgr.Parse("not-a-jwt"); err == nil {
			t.Fatal("expected malformed token to fail")
		}
	})
}

func FuzzParseTokenRobustness(f *testing.F) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		f.Fatalf("generate rsa key: %v", err)
	}
	mgr := NewJWTManager("iss", "aud", &KeyPair{Private: priv, Public: &priv.PublicKey})
	valid, _ := mgr.Sign(42, "creator", time.Minute)

	f.Add(valid)
	f.Add("")
	f.Add("not-a-jwt")
	f.Add("header.payload.signature")
	f.Add(strings.Repeat("a", 8192))

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 16384 {
			raw = raw[:16384]
		}
		claims, err := mgr.Parse(raw)
		if err == nil {
			if claims == nil {
				t.Fatal("expected non-nil claims on successful parse")
			}
			if claims.Subject == "" {
				t.Fatal("expected non-empty subject on successful parse")
			}
		}
	})
}
