// Package auth issues and verifies the signed, time-limited credentials used
// by the API.  Two token kinds exist: short-lived access tokens presented on
// every request and long-lived refresh tokens exchanged for new access
// tokens.  Each kind is signed with its own secret so that a compromise of
// one kind never lets an attacker mint the other.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/collab-notes/internal/model"
)

// Token kinds embedded in the claims.  Verification checks the kind in
// addition to the signature, so even identical secrets would not let a
// refresh token pass as an access token.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	// ErrTokenExpired is returned when a structurally valid token is past
	// its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for malformed, tampered or wrong-kind
	// tokens.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload carried by both token kinds.  The subject holds the
// user id in decimal form; username and email ride along so clients can
// render the session without an extra lookup.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a user id.
func (c Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// TokenService signs and verifies HS256 JWTs.  The two secrets are
// long-lived, process-wide, read-only configuration; verification needs no
// other shared state.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService builds a TokenService from the two signing secrets and the
// lifetimes for each kind.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess signs a short-lived access token for the user.
func (s *TokenService) IssueAccess(u model.User) (string, error) {
	return s.issue(u, KindAccess, s.accessSecret, s.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user.
func (s *TokenService) IssueRefresh(u model.User) (string, error) {
	return s.issue(u, KindRefresh, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) issue(u model.User, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: u.Username,
		Email:    u.Email,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(token string) (Claims, error) {
	return verify(token, KindAccess, s.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (s *TokenService) VerifyRefresh(token string) (Claims, error) {
	return verify(token, KindRefresh, s.refreshSecret)
}

// verify parses a token against a single secret.  There is no shared
// verification path between kinds: each Verify* call knows exactly one
// secret and one expected kind.
func verify(token, kind string, secret []byte) (Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid || claims.Kind != kind {
		return Claims{}, ErrTokenInvalid
	}
	return *claims, nil
}
