package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/collab-notes/internal/auth"
	"github.com/iliyamo/collab-notes/internal/model"
)

// identityKey is the Echo context key under which AuthGate stores the
// authenticated identity.
const identityKey = "identity"

// UserLookup resolves a token subject back to its user record.  The lookup
// runs on every request: there is no session cache and no revocation list,
// so a deleted user stops authenticating immediately even though their
// token is still cryptographically valid.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AuthGate returns an Echo middleware that resolves a bearer access token
// into a strongly typed auth.Identity on the request context.
//
// Status codes are deliberately distinct: a missing credential is 401 while
// a present-but-invalid one is 403, so clients can tell "log in" apart from
// "re-login".
func AuthGate(tokens *auth.TokenService, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}
			subject, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// The subject may have been deleted after the token was issued;
			// treat that as unauthenticated rather than crashing downstream.
			u, err := users.GetByID(ctx, subject)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
			}

			c.Set(identityKey, auth.Identity{ID: u.ID, Username: u.Username, Email: u.Email})
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity attached by AuthGate.
func CurrentIdentity(c echo.Context) (auth.Identity, bool) {
	ident, ok := c.Get(identityKey).(auth.Identity)
	return ident, ok
}
