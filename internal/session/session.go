package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"

	"kirana/internal/notify"
)

// ErrExpiredToken is returned when the supplied bearer token is
// already past its expiry.
var ErrExpiredToken = errors.New("session token is expired")

// Session scopes the notification poller to one authenticated admin.
// The poller starts when the session opens and is torn down when the
// session closes, the token expires, or the backend reports 401. No
// poller state survives the session.
type Session struct {
	poller *notify.Poller
	expiry time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// Open validates the token's expiry, starts the poller, and returns
// the running session. The token signature is not checked here; only
// the backend holds the signing key, and a 401 from it invalidates the
// session regardless.
func Open(ctx context.Context, token string, poller *notify.Poller) (*Session, error) {
	expiry, err := tokenExpiry(token)
	if err != nil {
		return nil, err
	}
	if !expiry.IsZero() && time.Now().After(expiry) {
		return nil, ErrExpiredToken
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		poller: poller,
		expiry: expiry,
		cancel: cancel,
	}

	go poller.Run(runCtx)

	if !expiry.IsZero() {
		go s.watchExpiry(runCtx)
	}
	return s, nil
}

// watchExpiry closes the session when the token's lifetime runs out.
func (s *Session) watchExpiry(ctx context.Context) {
	timer := time.NewTimer(time.Until(s.expiry))
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		log.Printf("session token expired, stopping poller")
		s.Close()
	}
}

// Invalidate tears the session down in response to a backend 401. The
// caller is responsible for whatever re-login flow follows.
func (s *Session) Invalidate() {
	log.Printf("backend rejected session token, stopping poller")
	s.Close()
}

// Close stops the poller and marks the session closed. Safe to call
// more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Expiry returns the token expiry, or the zero time when the token
// carries no exp claim.
func (s *Session) Expiry() time.Time {
	return s.expiry
}

// tokenExpiry reads the exp claim from a JWT without verifying the
// signature. An empty token (dev mode against an unauthenticated
// stub) yields no expiry.
func tokenExpiry(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, nil
	}

	claims := jwt.MapClaims{}
	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, errors.New("malformed session token")
	}

	exp, ok := claims["exp"]
	if !ok {
		return time.Time{}, nil
	}
	switch v := exp.(type) {
	case float64:
		return time.Unix(int64(v), 0), nil
	case int64:
		return time.Unix(v, 0), nil
	}
	return time.Time{}, errors.New("malformed exp claim in session token")
}
