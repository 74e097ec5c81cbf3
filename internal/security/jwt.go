package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A token is only ever accepted for the purpose it was
// issued with; a reset proof can never stand in for a session.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password-reset"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies purpose-tagged bearer tokens with a
// process-wide HS256 secret fixed at startup.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, sessionTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), sessionTTL: sessionTTL, now: time.Now}
}

// WithClock overrides the issuer clock. Test hook.
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	ti.now = now
	return ti
}

// IssueSession returns a session token for uid with the default
// days-scale TTL.
func (ti *TokenIssuer) IssueSession(uid string) (string, error) {
	return ti.issue(uid, PurposeSession, ti.sessionTTL)
}

// IssueProof returns a short-lived token attesting a completed
// verification step, scoped to purpose.
func (ti *TokenIssuer) IssueProof(uid, purpose string, ttl time.Duration) (string, error) {
	return ti.issue(uid, purpose, ttl)
}

func (ti *TokenIssuer) issue(uid, purpose string, ttl time.Duration) (string, error) {
	now := ti.now()
	c := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(ti.secret)
}

// Verify checks signature, expiry and purpose in one step and returns
// the embedded subject. A purpose mismatch is a verification failure,
// not a separate error kind.
func (ti *TokenIssuer) Verify(token, expectedPurpose string) (string, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return "", ErrInvalidToken
	}
	if c.Purpose != expectedPurpose {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
