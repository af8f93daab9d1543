package auth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"bookshelf/internal/httpx"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenRevoked = errors.New("token revoked")
)

// Service verifies access tokens and tracks which sessions are live.
type Service struct {
	secret    string
	blacklist *Blacklist
	sessions  *Sessions
	now       func() time.Time

	mu     sync.Mutex
	active map[string]httpx.Claims // by token id
}

func NewService(secret string, blacklist *Blacklist, sessions *Sessions) *Service {
	return &Service{
		secret:    secret,
		blacklist: blacklist,
		sessions:  sessions,
		now:       time.Now,
		active:    make(map[string]httpx.Claims),
	}
}

// Verify implements httpx.Verifier. The first successful verification of a
// token publishes SignedIn.
func (s *Service) Verify(ctx context.Context, token string) (httpx.Claims, error) {
	c, err := ParseToken(s.secret, token)
	if err != nil {
		return httpx.Claims{}, errors.Join(ErrUnauthorized, err)
	}
	if c.Sub == "" {
		return httpx.Claims{}, ErrUnauthorized
	}
	if s.blacklist.IsBlacklisted(c.ID) {
		return httpx.Claims{}, errors.Join(ErrUnauthorized, ErrTokenRevoked)
	}

	claims := httpx.Claims{
		UserID:    c.Sub,
		Role:      c.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if s.markActive(claims) {
		s.sessions.Publish(Event{Kind: SignedIn, UserID: claims.UserID, TokenID: claims.TokenID})
	}
	return claims, nil
}

func (s *Service) markActive(c httpx.Claims) bool {
	if c.TokenID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[c.TokenID]; ok {
		return false
	}
	s.active[c.TokenID] = c
	return true
}

// SignOut revokes the token behind claims and publishes SignedOut.
func (s *Service) SignOut(ctx context.Context, c httpx.Claims) error {
	if c.UserID == "" {
		return ErrUnauthorized
	}
	expiresAt := c.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(24 * time.Hour)
	}
	s.blacklist.AddToken(c.TokenID, expiresAt)

	s.mu.Lock()
	delete(s.active, c.TokenID)
	s.mu.Unlock()

	s.sessions.Publish(Event{Kind: SignedOut, UserID: c.UserID, TokenID: c.TokenID})
	log.Printf("signed out user_id=%s token_id=%s", c.UserID, c.TokenID)
	return nil
}

// RunCleanup prunes expired revocations and sessions until ctx is done.
// Sessions that simply expire publish SignedOut.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Service) cleanup() {
	if n := s.blacklist.CleanupExpired(); n > 0 {
		log.Printf("auth cleanup revoked_expired=%d", n)
	}

	now := s.now()
	var expired []Event
	s.mu.Lock()
	for jti, c := range s.active {
		if !now.Before(c.ExpiresAt) {
			delete(s.active, jti)
			expired = append(expired, Event{Kind: SignedOut, UserID: c.UserID, TokenID: jti})
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		s.sessions.Publish(e)
	}
}
