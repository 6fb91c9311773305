// Package auth keeps registered users in a JSON file and hands out bearer
// tokens for logged-in identities.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type userRecord struct {
	Password string `json:"password"`
}

// Users is a file-backed user registry. Passwords are stored as bcrypt hashes.
type Users struct {
	mu     sync.Mutex
	path   string
	cost   int
	users  map[string]userRecord
	logger *zap.Logger
}

// OpenUsers loads the registry from path, creating an empty one when the file
// does not exist. cost <= 0 selects bcrypt.DefaultCost.
func OpenUsers(path string, cost int, log *zap.Logger) (*Users, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	u := &Users{
		path:   path,
		cost:   cost,
		users:  map[string]userRecord{},
		logger: logger.WithFields(log),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := u.save(); err != nil {
			return nil, err
		}
		u.logger.Info("created users file", zap.String("path", path))
		return u, nil
	case err != nil:
		return nil, fmt.Errorf("read users file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &u.users); err != nil {
			return nil, fmt.Errorf("decode users file %s: %w", path, err)
		}
	}

	return u, nil
}

func (u *Users) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.users[username]; ok {
		return ErrUserExists
	}

	u.users[username] = userRecord{Password: string(hash)}
	if err := u.save(); err != nil {
		delete(u.users, username)
		return err
	}

	u.logger.Info("user registered", zap.String("user", username))

	return nil
}

// Verify checks the password of username.
func (u *Users) Verify(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	u.mu.Lock()
	record, ok := u.users[username]
	u.mu.Unlock()

	if !ok {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return nil
}

// save writes the registry through a temporary file so a crash never leaves
// a truncated file behind. Callers hold mu or own u exclusively.
func (u *Users) save() error {
	data, err := json.MarshalIndent(u.users, "", "    ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(u.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create users dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close users file: %w", err)
	}

	if err := os.Rename(tmp.Name(), u.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}

	return nil
}
