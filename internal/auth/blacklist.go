package auth

import (
	"sync"
	"time"
)

// Blacklist holds revoked token ids until the tokens would have expired
// anyway. It lives in memory, so revocations last for the process lifetime.
type Blacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewBlacklist() *Blacklist {
	return &Blacklist{tokens: make(map[string]time.Time), now: time.Now}
}

func (b *Blacklist) AddToken(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = expiresAt
}

func (b *Blacklist) IsBlacklisted(jti string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[jti]
	return ok && b.now().Before(exp)
}

// CleanupExpired drops entries whose tokens have expired and returns how
// many were removed.
func (b *Blacklist) CleanupExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for jti, exp := range b.tokens {
		if !now.Before(exp) {
			delete(b.tokens, jti)
			n++
		}
	}
	return n
}

func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tokens)
}
