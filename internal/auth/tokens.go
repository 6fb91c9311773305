package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

type tokenEntry struct {
	user    string
	expires time.Time
}

// Tokens maps opaque bearer tokens to usernames.
type Tokens struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]tokenEntry
}

func NewTokens(ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Tokens{
		ttl:    ttl,
		now:    time.Now,
		tokens: map[string]tokenEntry{},
	}
}

// Issue creates a new token for user.
func (t *Tokens) Issue(user string) string {
	token := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.tokens[token] = tokenEntry{user: user, expires: t.now().Add(t.ttl)}
	return token
}

// Lookup returns the user owning token. Expired tokens are dropped.
func (t *Tokens) Lookup(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.tokens[token]
	if !ok {
		return "", false
	}

	if !t.now().Before(entry.expires) {
		delete(t.tokens, token)
		return "", false
	}

	return entry.user, true
}

func (t *Tokens) Revoke(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.tokens, token)
}
