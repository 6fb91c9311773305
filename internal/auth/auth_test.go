package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestUsersRegisterAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	users, err := OpenUsers(path, bcrypt.MinCost, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := users.Register("alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := users.Register("alice", "other"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if err := users.Register("", "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	if err := users.Verify("alice", "secret"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := users.Verify("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := users.Verify("bob", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Fatalf("password stored in clear text")
	}

	var stored map[string]userRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := stored["alice"]; !ok {
		t.Fatalf("alice not persisted: %s", data)
	}

	reopened, err := OpenUsers(path, bcrypt.MinCost, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.Verify("alice", "secret"); err != nil {
		t.Fatalf("verify after reopen: %v", err)
	}
}

func TestOpenUsersRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := OpenUsers(path, bcrypt.MinCost, zap.NewNop()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTokens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewTokens(time.Hour)
	tokens.now = func() time.Time { return now }

	token := tokens.Issue("alice")
	if user, ok := tokens.Lookup(token); !ok || user != "alice" {
		t.Fatalf("lookup failed: %q %v", user, ok)
	}

	other := tokens.Issue("alice")
	if other == token {
		t.Fatalf("tokens must be unique")
	}

	tokens.Revoke(token)
	if _, ok := tokens.Lookup(token); ok {
		t.Fatalf("revoked token still valid")
	}

	now = now.Add(time.Hour)
	if _, ok := tokens.Lookup(other); ok {
		t.Fatalf("expired token still valid")
	}
}
