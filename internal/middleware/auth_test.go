package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/collab-notes/internal/auth"
	"github.com/iliyamo/collab-notes/internal/model"
)

type fakeUsers struct {
	users map[uint64]model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func gateFixture(t *testing.T) (*auth.TokenService, *fakeUsers, echo.HandlerFunc) {
	t.Helper()
	tokens := auth.NewTokenService("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
	users := &fakeUsers{users: map[uint64]model.User{
		7: {ID: 7, Username: "alice", Email: "alice@example.com"},
	}}
	next := func(c echo.Context) error {
		ident, ok := CurrentIdentity(c)
		if !ok {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no identity"})
		}
		return c.JSON(http.StatusOK, ident)
	}
	return tokens, users, next
}

func invoke(t *testing.T, tokens *auth.TokenService, users UserLookup, next echo.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/notes", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, AuthGate(tokens, users)(next)(c))
	return rec
}

func TestAuthGate_MissingToken(t *testing.T) {
	t.Parallel()
	tokens, users, next := gateFixture(t)

	rec := invoke(t, tokens, users, next, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = invoke(t, tokens, users, next, "Basic abc")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGate_InvalidTokenIsDistinctFromMissing(t *testing.T) {
	t.Parallel()
	tokens, users, next := gateFixture(t)

	rec := invoke(t, tokens, users, next, "Bearer garbage")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// A refresh token must not pass the access gate.
	refresh, err := tokens.IssueRefresh(users.users[7])
	require.NoError(t, err)
	rec = invoke(t, tokens, users, next, "Bearer "+refresh)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthGate_AttachesIdentity(t *testing.T) {
	t.Parallel()
	tokens, users, next := gateFixture(t)

	access, err := tokens.IssueAccess(users.users[7])
	require.NoError(t, err)

	rec := invoke(t, tokens, users, next, "Bearer "+access)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":7,"username":"alice","email":"alice@example.com"}`, rec.Body.String())
}

func TestAuthGate_DeletedSubject(t *testing.T) {
	t.Parallel()
	tokens, users, next := gateFixture(t)

	ghost := model.User{ID: 9, Username: "ghost", Email: "ghost@example.com"}
	access, err := tokens.IssueAccess(ghost)
	require.NoError(t, err)

	rec := invoke(t, tokens, users, next, "Bearer "+access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
