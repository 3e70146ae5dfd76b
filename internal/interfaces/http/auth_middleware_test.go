package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	apphttp "github.com/jhoicas/Biblioteca-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Biblioteca-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = int64(7)
	testCI        = "1234567"
	testIssuer    = "biblioteca-test"
	testExpMin    = 60
)

// fakeDenylist denylist en memoria; err simula la caída del cache.
type fakeDenylist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, _ time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

// fakeRoles roles guardados por usuario; err simula la caída de la base de datos.
type fakeRoles struct {
	roles map[int64]string
	err   error
}

func (f *fakeRoles) CurrentRole(_ context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return role, nil
}

// buildTestApp app mínima con AuthMiddleware + RequireRole y un handler que responde 200.
func buildTestApp(denylist *fakeDenylist, allowedRoles ...string) *fiber.App {
	return buildTestAppWithRoles(denylist, nil, allowedRoles...)
}

func buildTestAppWithRoles(denylist *fakeDenylist, roles *fakeRoles, allowedRoles ...string) *fiber.App {
	app := fiber.New()
	var dl ports.TokenDenylist
	if denylist != nil {
		dl = denylist
	}
	var source apphttp.RoleSource
	if roles != nil {
		source = roles
	}
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret, dl),
		apphttp.RequireRole(source, allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"ok": true, "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCI, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRequireRole_AdminAccedeRutaAdmin(t *testing.T) {
	app := buildTestApp(nil, "admin")
	resp := doRequest(t, app, tokenForRole(t, "admin"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["role"])
}

func TestRequireRole_UsuarioEnRutaAbierta(t *testing.T) {
	app := buildTestApp(nil, "admin", "user")
	resp := doRequest(t, app, tokenForRole(t, "user"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_UsuarioBloqueadoEnRutaAdmin(t *testing.T) {
	app := buildTestApp(nil, "admin")
	resp := doRequest(t, app, tokenForRole(t, "user"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "FORBIDDEN")
}

func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	app := buildTestApp(nil, "admin")
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCI, "", testIssuer, testExpMin)
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "MISSING_ROLE")
}

func TestAuthMiddleware_ErroresDeToken(t *testing.T) {
	app := buildTestApp(nil, "admin")
	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema incorrecto", "Basic abc", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, app, tc.header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, bodyString(t, resp), tc.code)
		})
	}
}

func TestAuthMiddleware_TokenRevocado(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCI, "admin", testIssuer, testExpMin)
	require.NoError(t, err)
	claims, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)

	dl := &fakeDenylist{revoked: map[string]bool{}}
	app := buildTestApp(dl, "admin")

	resp := doRequest(t, app, "Bearer "+tok)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, dl.Revoke(context.Background(), claims.ID, claims.ExpiresAtTime()))
	resp = doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "TOKEN_REVOKED")
}

func TestAuthMiddleware_DenylistCaido_Retorna503(t *testing.T) {
	app := buildTestApp(&fakeDenylist{err: errors.New("redis down")}, "admin")
	resp := doRequest(t, app, tokenForRole(t, "admin"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret, nil), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  apphttp.GetUserID(c),
			"ci":       apphttp.GetCI(c),
			"role":     apphttp.GetRole(c),
			"jti":      apphttp.GetTokenID(c),
			"is_admin": apphttp.IsAdmin(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenForRole(t, "admin"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID  int64  `json:"user_id"`
		CI      string `json:"ci"`
		Role    string `json:"role"`
		JTI     string `json:"jti"`
		IsAdmin bool   `json:"is_admin"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body.UserID)
	assert.Equal(t, testCI, body.CI)
	assert.Equal(t, "admin", body.Role)
	assert.NotEmpty(t, body.JTI)
	assert.True(t, body.IsAdmin)
}

func TestRequireRole_RolDegradadoTrasElLogin(t *testing.T) {
	roles := &fakeRoles{roles: map[int64]string{testUserID: "user"}}
	app := buildTestAppWithRoles(nil, roles, "admin")

	resp := doRequest(t, app, tokenForRole(t, "admin"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "FORBIDDEN")
}

func TestRequireRole_RolVigente(t *testing.T) {
	cases := []struct {
		name   string
		roles  *fakeRoles
		status int
		code   string
	}{
		{"sigue siendo admin", &fakeRoles{roles: map[int64]string{testUserID: "admin"}}, http.StatusOK, ""},
		{"usuario borrado", &fakeRoles{roles: map[int64]string{}}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"base de datos caída", &fakeRoles{err: errors.New("db down")}, http.StatusServiceUnavailable, "ROLE_CHECK_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := buildTestAppWithRoles(nil, tc.roles, "admin")
			resp := doRequest(t, app, tokenForRole(t, "admin"))
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.code != "" {
				assert.Contains(t, bodyString(t, resp), tc.code)
			}
		})
	}
}

func TestRequireRole_PromovidoSinNuevoLogin(t *testing.T) {
	roles := &fakeRoles{roles: map[int64]string{testUserID: "admin"}}
	app := buildTestAppWithRoles(nil, roles, "admin")

	resp := doRequest(t, app, tokenForRole(t, "user"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "admin", body["role"], "los handlers ven el rol vigente")
}
