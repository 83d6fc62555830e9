/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"sync"
	"time"

	v1 "github.com/hortator-ai/cortex/api/v1"
	"github.com/hortator-ai/cortex/internal/cortexerr"
	"github.com/hortator-ai/cortex/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
)

// MaxLifetime is the hard cap on not_after - not_before (spec §4.2/§3).
const MaxLifetime = 24 * time.Hour

// maxRetainedKeys bounds how many prior signing keys remain valid for
// verification after a Rotate, mirroring the teacher's bounded retention of
// prior config generations rather than an unbounded key history.
const maxRetainedKeys = 5

// Service issues, verifies, revokes, and rotates capability tokens. Keys are
// held only in memory and are never logged (spec §4.2).
type Service struct {
	mu          sync.RWMutex
	currentKey  []byte
	priorKeys   [][]byte
	revoked     *gocache.Cache // nonce (string) -> struct{}
}

// NewService creates a token service with a freshly generated signing key.
func NewService() (*Service, error) {
	key, err := randomBytes(32)
	if err != nil {
		return nil, cortexerr.New(cortexerr.Fatal, "token.NewService", "key_generation_failed", err)
	}
	return &Service{
		currentKey: key,
		revoked:    gocache.New(MaxLifetime, time.Hour),
	}, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Issue mints a token for subject with scopes, valid from now for lifetime.
// lifetime must not exceed MaxLifetime.
func (s *Service) Issue(subject string, scopes []string, lifetime time.Duration) (v1.CapabilityToken, error) {
	if subject == "" {
		return v1.CapabilityToken{}, cortexerr.New(cortexerr.Validation, "token.Issue", "empty_subject", nil)
	}
	if lifetime <= 0 || lifetime > MaxLifetime {
		return v1.CapabilityToken{}, cortexerr.New(cortexerr.Validation, "token.Issue", "lifetime_out_of_range", nil)
	}
	nonceBytes, err := randomBytes(16)
	if err != nil {
		return v1.CapabilityToken{}, cortexerr.New(cortexerr.Fatal, "token.Issue", "nonce_generation_failed", err)
	}
	var nonce [16]byte
	copy(nonce[:], nonceBytes)

	now := time.Now().UTC()
	f := fields{
		Subject:   subject,
		Scopes:    append([]string(nil), scopes...),
		NotBefore: uint64(now.UnixMilli()),
		NotAfter:  uint64(now.Add(lifetime).UnixMilli()),
		Nonce:     nonce,
	}

	s.mu.RLock()
	key := s.currentKey
	s.mu.RUnlock()

	mac := computeMAC(key, unsignedBytes(f))

	metrics.TokenIssuedTotal.Inc()

	return v1.CapabilityToken{
		Subject:   f.Subject,
		Scopes:    f.Scopes,
		NotBefore: now,
		NotAfter:  now.Add(lifetime),
		Nonce:     nonce,
		MAC:       mac,
	}, nil
}

func computeMAC(key, unsigned []byte) [32]byte {
	h := hmac.New(sha256.New, key)
	h.Write(unsigned)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyResult is the outcome of Verify.
type VerifyResult int

const (
	Ok VerifyResult = iota
	ExpiredError
	ScopeError
	MacError
	RevokedError
	NotYetValidError
)

// Verify checks tok against requiredScope as of now, trying the current key
// and every retained prior key in turn (spec §4.2 rotation semantics).
func (s *Service) Verify(tok v1.CapabilityToken, requiredScope string, now time.Time) VerifyResult {
	nonceKey := string(tok.Nonce[:])
	if _, found := s.revoked.Get(nonceKey); found {
		return RevokedError
	}
	if now.Before(tok.NotBefore) {
		return NotYetValidError
	}
	if now.After(tok.NotAfter) {
		return ExpiredError
	}

	f := fields{
		Subject:   tok.Subject,
		Scopes:    tok.Scopes,
		NotBefore: uint64(tok.NotBefore.UnixMilli()),
		NotAfter:  uint64(tok.NotAfter.UnixMilli()),
		Nonce:     tok.Nonce,
	}
	unsigned := unsignedBytes(f)

	if !s.macValidUnderAnyKey(unsigned, tok.MAC) {
		return MacError
	}

	if requiredScope != "" && !hasScope(tok.Scopes, requiredScope) {
		return ScopeError
	}
	return Ok
}

func hasScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (s *Service) macValidUnderAnyKey(unsigned []byte, mac [32]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if subtle.ConstantTimeCompare(computeMAC(s.currentKey, unsigned)[:], mac[:]) == 1 {
		return true
	}
	for _, k := range s.priorKeys {
		if subtle.ConstantTimeCompare(computeMAC(k, unsigned)[:], mac[:]) == 1 {
			return true
		}
	}
	return false
}

// Revoke immediately invalidates future verifications of the token carrying
// nonce, until the revocation entry itself expires past MaxLifetime (by
// which point the token would have expired naturally anyway).
func (s *Service) Revoke(nonce [16]byte) {
	s.revoked.Set(string(nonce[:]), struct{}{}, gocache.DefaultExpiration)
}

// Rotate generates a new signing key, retaining the previous current key
// (and up to maxRetainedKeys-1 older ones) so tokens signed before rotation
// keep verifying until they expire naturally.
func (s *Service) Rotate() error {
	newKey, err := randomBytes(32)
	if err != nil {
		return cortexerr.New(cortexerr.Fatal, "token.Rotate", "key_generation_failed", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priorKeys = append([][]byte{s.currentKey}, s.priorKeys...)
	if len(s.priorKeys) > maxRetainedKeys {
		s.priorKeys = s.priorKeys[:maxRetainedKeys]
	}
	s.currentKey = newKey
	return nil
}
