package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"carbridge/internal/config"

	"golang.org/x/crypto/bcrypt"
)

const (
	hashCost    = 12
	tokenLength = 16
	verifiedTTL = 10 * time.Minute
)

// ErrNoToken is returned when auth is enabled without a configured token
var ErrNoToken = errors.New("pairing auth enabled without a token")

// Pairing checks head-unit pairing tokens against a bcrypt hash. Tokens
// that verified recently are remembered so that repeated requests skip
// the hash comparison.
type Pairing struct {
	enabled bool
	hash    []byte

	mutex    sync.Mutex
	verified map[string]time.Time
}

// NewPairing builds the checker from config. A plain token takes
// precedence over the stored hash.
func NewPairing(cfg *config.AuthConfig) (*Pairing, error) {
	if cfg == nil || !cfg.Enabled {
		return &Pairing{}, nil
	}

	hash := cfg.TokenHash
	if cfg.Token != "" {
		if isHashedToken(cfg.Token) {
			hash = cfg.Token
		} else {
			h, err := HashToken(cfg.Token)
			if err != nil {
				return nil, fmt.Errorf("failed to hash pairing token: %w", err)
			}
			hash = h
		}
	}
	if hash == "" {
		return nil, ErrNoToken
	}
	if !isHashedToken(hash) {
		return nil, errors.New("pairing token hash is not a bcrypt hash")
	}

	return &Pairing{
		enabled:  true,
		hash:     []byte(hash),
		verified: make(map[string]time.Time),
	}, nil
}

// IsEnabled reports whether requests must carry a pairing token
func (p *Pairing) IsEnabled() bool {
	return p != nil && p.enabled
}

// Verify reports whether token matches the configured pairing token.
// Always true when pairing is disabled.
func (p *Pairing) Verify(token string) bool {
	if !p.IsEnabled() {
		return true
	}
	if token == "" {
		return false
	}

	now := time.Now()
	p.mutex.Lock()
	if until, ok := p.verified[token]; ok && now.Before(until) {
		p.mutex.Unlock()
		return true
	}
	p.mutex.Unlock()

	if bcrypt.CompareHashAndPassword(p.hash, []byte(token)) != nil {
		return false
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	for t, until := range p.verified {
		if now.After(until) {
			delete(p.verified, t)
		}
	}
	p.verified[token] = now.Add(verifiedTTL)
	return true
}

// VerifyRequest checks the token carried by r
func (p *Pairing) VerifyRequest(r *http.Request) bool {
	return p.Verify(TokenFromRequest(r))
}

// TokenFromRequest reads a bearer token, falling back to the token query
// parameter used by websocket clients that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

// GenerateToken returns a random pairing token
func GenerateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken hashes a pairing token for storage in the config file
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isHashedToken recognises bcrypt hashes ($2a$, $2b$, $2x$ or $2y$)
func isHashedToken(s string) bool {
	return len(s) >= 4 &&
		s[0] == '$' &&
		s[1] == '2' &&
		(s[2] == 'a' || s[2] == 'b' || s[2] == 'x' || s[2] == 'y') &&
		s[3] == '$'
}
