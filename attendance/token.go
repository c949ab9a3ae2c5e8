package attendance

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type AttendanceType string

const (
	TypeCheckIn  AttendanceType = "check-in"
	TypeCheckOut AttendanceType = "check-out"
)

func ParseAttendanceType(s string) (AttendanceType, error) {
	switch AttendanceType(s) {
	case TypeCheckIn, TypeCheckOut:
		return AttendanceType(s), nil
	}
	return "", fmt.Errorf("unknown attendance type: %q", s)
}

// Token is the opaque value rendered as a QR symbol. Nothing is encoded in
// the value itself; lookup is byte-equality against the store.
type Token struct {
	Value     string         `json:"token"`
	OfficeID  uint           `json:"office_id"`
	Type      AttendanceType `json:"type"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type tokenKey struct {
	officeID uint
	typ      AttendanceType
}

// TokenStore holds the single live token per (office, type). Issuing a new
// token supersedes the previous one immediately, even if its expiry has not
// elapsed. Tokens are multi-use within their window: Resolve never consumes.
// Expiry is passive, checked on read; nothing sweeps in the background.
type TokenStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	live    map[tokenKey]string
	byValue map[string]Token
}

const DefaultTokenTTL = 2 * time.Minute

// NewTokenStore creates a store issuing tokens valid for ttl. A non-positive
// ttl falls back to DefaultTokenTTL.
func NewTokenStore(ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenStore{
		ttl:     ttl,
		now:     time.Now,
		live:    make(map[tokenKey]string),
		byValue: make(map[string]Token),
	}
}

// WithClock overrides the store's clock. Test hook.
func (s *TokenStore) WithClock(now func() time.Time) *TokenStore {
	s.now = now
	return s
}

// Issue mints a fresh token for (officeID, typ) and atomically replaces the
// live one for that key. The superseded value becomes unresolvable at once.
func (s *TokenStore) Issue(officeID uint, typ AttendanceType) Token {
	value := newTokenValue()
	key := tokenKey{officeID: officeID, typ: typ}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.live[key]; ok {
		delete(s.byValue, old)
	}

	issued := s.now()
	token := Token{
		Value:     value,
		OfficeID:  officeID,
		Type:      typ,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(s.ttl),
	}
	s.live[key] = value
	s.byValue[value] = token
	return token
}

// Resolve looks a token up by its opaque value. The second return is false
// when the value was never issued, has been rotated away, or has expired.
func (s *TokenStore) Resolve(value string) (Token, bool) {
	s.mu.RLock()
	token, ok := s.byValue[value]
	s.mu.RUnlock()

	if !ok {
		return Token{}, false
	}
	if s.now().After(token.ExpiresAt) {
		return Token{}, false
	}
	return token, true
}

// Live returns the current token for a key if one exists and is unexpired.
// Used by the admin display to re-render without forcing a rotation.
func (s *TokenStore) Live(officeID uint, typ AttendanceType) (Token, bool) {
	s.mu.RLock()
	value, ok := s.live[tokenKey{officeID: officeID, typ: typ}]
	s.mu.RUnlock()

	if !ok {
		return Token{}, false
	}
	return s.Resolve(value)
}

// TTL reports the configured validity window.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func newTokenValue() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("token entropy unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
