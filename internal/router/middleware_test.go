package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubportal/internal/access"
	"clubportal/internal/auth"
	"clubportal/internal/errors"
	"clubportal/internal/handler"
	"clubportal/internal/model"
)

type stubLoader struct {
	principals map[uint]*access.Principal
	err        error
}

func (l *stubLoader) Principal(_ context.Context, claims *auth.Claims) (*access.Principal, error) {
	if l.err != nil {
		return nil, l.err
	}
	p, ok := l.principals[claims.UserID]
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	return p, nil
}

type roleStore map[uint][]model.Role

func (s roleStore) AssignedRoles(_ context.Context, userID uint) ([]model.Role, error) {
	return s[userID], nil
}

func (s roleStore) PositionRole(context.Context, uint) (*model.Role, error) {
	return nil, nil
}

func newTestServer(t *testing.T, loader PrincipalLoader) (*echo.Echo, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService("test-secret")
	ev := access.NewEvaluator(roleStore{
		2: {{Name: "Projects", CanManageProjects: true}},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ok := func(c echo.Context) error {
		p := handler.PrincipalFrom(c)
		if p == nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, p.Username)
	}

	e := echo.New()
	g := e.Group("/api", optionalJWT(jwtService), loadPrincipal(loader))
	g.GET("/whoami", ok)
	g.GET("/private", ok, requireAuth)
	g.GET("/projects", ok, requirePermission(ev, access.ResourceProjects))
	g.POST("/projects", ok, requirePermission(ev, access.ResourceProjects))
	g.DELETE("/projects/:id", ok, requirePermission(ev, access.ResourceProjects))
	g.GET("/audit-logs", ok, requirePermission(ev, access.ResourceAuditLogs))
	return e, jwtService
}

func bearer(t *testing.T, j *auth.JWTService, id uint, name string) string {
	t.Helper()
	token, err := j.GenerateAccessToken(auth.Identity{UserID: id, Username: name})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(e *echo.Echo, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOptionalJWT(t *testing.T) {
	loader := &stubLoader{principals: map[uint]*access.Principal{
		1: {UserID: 1, Username: "alice"},
	}}
	e, j := newTestServer(t, loader)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "no header is anonymous", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "valid token loads principal", header: bearer(t, j, 1, "alice"), wantStatus: http.StatusOK, wantBody: "alice"},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "token signed elsewhere", header: bearer(t, auth.NewJWTService("other"), 1, "alice"), wantStatus: http.StatusUnauthorized},
		{name: "unknown user", header: bearer(t, j, 99, "ghost"), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/api/whoami", tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestLoadPrincipal_InfrastructureErrorIsNotUnauthorized(t *testing.T) {
	e, j := newTestServer(t, &stubLoader{err: assert.AnError})

	rec := serve(e, http.MethodGet, "/api/whoami", bearer(t, j, 1, "alice"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	loader := &stubLoader{principals: map[uint]*access.Principal{
		1: {UserID: 1, Username: "alice"},
	}}
	e, j := newTestServer(t, loader)

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/api/private", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/private", bearer(t, j, 1, "alice")).Code)
}

func TestRequirePermission(t *testing.T) {
	loader := &stubLoader{principals: map[uint]*access.Principal{
		1: {UserID: 1, Username: "plain"},
		2: {UserID: 2, Username: "lead"},
		3: {UserID: 3, Username: "root", IsSuperuser: true},
	}}
	e, j := newTestServer(t, loader)

	tests := []struct {
		name       string
		method     string
		path       string
		user       uint
		wantStatus int
	}{
		{name: "public read", method: http.MethodGet, path: "/api/projects", wantStatus: http.StatusOK},
		{name: "anonymous create", method: http.MethodPost, path: "/api/projects", wantStatus: http.StatusUnauthorized},
		{name: "member without capability", method: http.MethodPost, path: "/api/projects", user: 1, wantStatus: http.StatusForbidden},
		{name: "capability holder creates", method: http.MethodPost, path: "/api/projects", user: 2, wantStatus: http.StatusOK},
		{name: "capability holder deletes", method: http.MethodDelete, path: "/api/projects/7", user: 2, wantStatus: http.StatusOK},
		{name: "audit logs need security", method: http.MethodGet, path: "/api/audit-logs", user: 2, wantStatus: http.StatusForbidden},
		{name: "superuser bypasses", method: http.MethodGet, path: "/api/audit-logs", user: 3, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := ""
			if tt.user != 0 {
				header = bearer(t, j, tt.user, loader.principals[tt.user].Username)
			}
			rec := serve(e, tt.method, tt.path, header)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
