package auth

import (
	"context"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret-Pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-Pass" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "s3cret-Pass") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tk := NewTokens("test-secret", time.Hour)
	token, jti, err := tk.Issue("u1", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if jti == "" {
		t.Fatal("empty jti")
	}
	claims, err := tk.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "alice" || claims.Role != "user" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ID != jti {
		t.Fatalf("jti mismatch: %s != %s", claims.ID, jti)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokens("secret-a", time.Hour).Issue("u1", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokens("secret-b", time.Hour).Parse(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	tk := NewTokens("test-secret", -time.Minute)
	token, _, err := tk.Issue("u1", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tk.Parse(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestMemSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemSessions()
	if err := s.Put(ctx, "jti-1", "u1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := s.Exists(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("exists: ok=%v err=%v", ok, err)
	}
	if err := s.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, _ = s.Exists(ctx, "jti-1")
	if ok {
		t.Fatal("session still exists after revoke")
	}
}
