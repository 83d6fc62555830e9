/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package token

import (
	"testing"
	"time"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	tok, err := s.Issue("agent-1", []string{"dispatch", "emit-artifact"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if res := s.Verify(tok, "dispatch", time.Now()); res != Ok {
		t.Errorf("expected Ok, got %v", res)
	}
	if res := s.Verify(tok, "unknown-scope", time.Now()); res != ScopeError {
		t.Errorf("expected ScopeError, got %v", res)
	}
}

func TestIssueRejectsExcessiveLifetime(t *testing.T) {
	s, _ := NewService()
	if _, err := s.Issue("agent-1", []string{"dispatch"}, 25*time.Hour); err == nil {
		t.Error("expected error for lifetime > 24h")
	}
}

func TestVerifyExpired(t *testing.T) {
	s, _ := NewService()
	tok, _ := s.Issue("agent-1", []string{"dispatch"}, time.Minute)
	future := tok.NotAfter.Add(time.Second)
	if res := s.Verify(tok, "dispatch", future); res != ExpiredError {
		t.Errorf("expected ExpiredError, got %v", res)
	}
}

func TestRevokeInvalidatesToken(t *testing.T) {
	s, _ := NewService()
	tok, _ := s.Issue("agent-1", []string{"dispatch"}, time.Hour)
	s.Revoke(tok.Nonce)
	if res := s.Verify(tok, "dispatch", time.Now()); res != RevokedError {
		t.Errorf("expected RevokedError, got %v", res)
	}
}

func TestRotateKeepsPriorTokensValid(t *testing.T) {
	s, _ := NewService()
	tok, err := s.Issue("agent-1", []string{"dispatch"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := s.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if res := s.Verify(tok, "dispatch", time.Now()); res != Ok {
		t.Errorf("expected pre-rotation token to still verify, got %v", res)
	}

	newTok, _ := s.Issue("agent-2", []string{"dispatch"}, time.Hour)
	if res := s.Verify(newTok, "dispatch", time.Now()); res != Ok {
		t.Errorf("expected post-rotation token to verify under new key, got %v", res)
	}
}

func TestVerifyRejectsTamperedMAC(t *testing.T) {
	s, _ := NewService()
	tok, _ := s.Issue("agent-1", []string{"dispatch"}, time.Hour)
	tok.MAC[0] ^= 0xFF
	if res := s.Verify(tok, "dispatch", time.Now()); res != MacError {
		t.Errorf("expected MacError for tampered MAC, got %v", res)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := fields{
		Subject:   "agent-1",
		Scopes:    []string{"b-scope", "a-scope"},
		NotBefore: 1000,
		NotAfter:  2000,
	}
	copy(f.Nonce[:], []byte("0123456789abcdef"))
	var mac [32]byte
	copy(mac[:], []byte("0123456789abcdef0123456789abcdef"))

	raw := encode(f, mac)
	got, gotMAC, err := decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Subject != f.Subject {
		t.Errorf("subject mismatch: %q vs %q", got.Subject, f.Subject)
	}
	if len(got.Scopes) != 2 || got.Scopes[0] != "a-scope" || got.Scopes[1] != "b-scope" {
		t.Errorf("expected sorted scopes, got %v", got.Scopes)
	}
	if got.NotBefore != f.NotBefore || got.NotAfter != f.NotAfter {
		t.Errorf("time bounds mismatch")
	}
	if gotMAC != mac {
		t.Errorf("mac mismatch")
	}
}
