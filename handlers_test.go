package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/stockdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	return &config.Config{
		JwtSecret:          "test-secret",
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         time.Hour,
		Cookie:             config.Cookie{Name: "refresh_token", Path: "/auth"},
		CORSOrigins:        []string{"http://localhost:3000"},
		RateLimitPerMinute: 1000,
		Script:             config.Script{Command: "sh", Args: []string{"-c", "exit 0"}},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	return newTestAppWith(t, testConfig())
}

func newTestAppWith(t *testing.T, c *config.Config) *App {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "stockdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewApp(c, db, zap.NewNop())
}

type reqOpt func(*http.Request)

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

func register(t *testing.T, h http.Handler, email, password string) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password, "fname": "A"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// login returns the access token and the refresh cookie.
func login(t *testing.T, h http.Handler, email, password string) (string, *http.Cookie) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := refreshCookie(rec)
	require.NotNil(t, c)
	return decode(t, rec)["accessToken"].(string), c
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestApp(t).Router()

	rec := do(t, h, http.MethodPost, "/auth/register", map[string]string{"email": "a@x.com", "password": "secret123", "fname": "A"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "registered", decode(t, rec)["message"])
	assert.Nil(t, refreshCookie(rec), "register does not log in")

	rec = do(t, h, http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	t1 := body["accessToken"].(string)
	require.NotEmpty(t, t1)
	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, "a@x.com", profile["email"])
	assert.Equal(t, "A", profile["fname"])
	c1 := refreshCookie(rec)
	require.NotNil(t, c1)
	assert.True(t, c1.HttpOnly)
	assert.Equal(t, "/auth", c1.Path)

	rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(c1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	t2 := decode(t, rec)["accessToken"].(string)
	assert.NotEqual(t, t1, t2)
	c2 := refreshCookie(rec)
	require.NotNil(t, c2)
	assert.NotEqual(t, c1.Value, c2.Value)

	rec = do(t, h, http.MethodDelete, "/auth/logout", nil, withCookie(c2))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(c2))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", decode(t, rec)["code"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	a := newTestApp(t)
	h := a.Router()
	register(t, h, "a@x.com", "secret123")

	for _, email := range []string{"a@x.com", "  A@X.com "} {
		rec := do(t, h, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": "other-password"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "DUPLICATE_IDENTITY", body["code"])
		assert.Equal(t, "Email already exists", body["message"])
	}

	all, err := a.DB.ListAccounts(testContext(t), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// the original password still works
	login(t, h, "a@x.com", "secret123")
}

func TestRegister_Validation(t *testing.T) {
	h := newTestApp(t).Router()

	cases := []struct {
		name string
		body interface{}
	}{
		{"missing email", map[string]string{"password": "secret123"}},
		{"malformed email", map[string]string{"email": "not-an-email", "password": "secret123"}},
		{"missing password", map[string]string{"email": "a@x.com"}},
		{"short password", map[string]string{"email": "a@x.com", "password": "short"}},
		{"password too long", map[string]string{"email": "a@x.com", "password": strings.Repeat("p", 80)}},
		{"not json", "just a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")

	wrong := do(t, h, http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "wrong-password"})
	unknown := do(t, h, http.MethodPost, "/auth/login", map[string]string{"email": "nobody@x.com", "password": "secret123"})

	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, refreshCookie(rec))
	}
	// an unknown email is indistinguishable from a wrong password
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "Mixed@Example.com", "secret123")
	login(t, h, "mixed@example.COM", "secret123")
}

func TestRefresh_ReuseRevokesAllSessions(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")
	_, c1 := login(t, h, "a@x.com", "secret123")
	_, other := login(t, h, "a@x.com", "secret123")

	rec := do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(c1))
	require.Equal(t, http.StatusOK, rec.Code)
	c2 := refreshCookie(rec)

	// c1 was rotated away; presenting it again is reuse
	rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(c1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, c := range []*http.Cookie{c2, other} {
		rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRefresh_LoggedOutTokenLeavesOtherSessions(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")
	_, laptop := login(t, h, "a@x.com", "secret123")
	_, phone := login(t, h, "a@x.com", "secret123")

	rec := do(t, h, http.MethodDelete, "/auth/logout", nil, withCookie(laptop))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(laptop))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", decode(t, rec)["code"])

	rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(phone))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_HeaderFallbackAndMissing(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")
	_, c := login(t, h, "a@x.com", "secret123")

	rec := do(t, h, http.MethodGet, "/auth/refresh", nil, withHeader("X-Refresh-Token", c.Value))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", decode(t, rec)["code"])

	rec = do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(&http.Cookie{Name: "refresh_token", Value: "garbage"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_Idempotent(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")
	_, c := login(t, h, "a@x.com", "secret123")

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodDelete, "/auth/logout", nil, withCookie(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, h, http.MethodDelete, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckEmailDuplicate(t *testing.T) {
	h := newTestApp(t).Router()

	check := func(email string) bool {
		rec := do(t, h, http.MethodPost, "/auth/check-email-duplicate", map[string]string{"email": email})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode(t, rec)["exists"].(bool)
	}

	assert.False(t, check("a@x.com"))
	assert.False(t, check("a@x.com"))
	register(t, h, "a@x.com", "secret123")
	assert.True(t, check("a@x.com"))
	assert.True(t, check("A@x.com"))

	rec := do(t, h, http.MethodPost, "/auth/check-email-duplicate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")
	access, _ := login(t, h, "a@x.com", "secret123")

	rec := do(t, h, http.MethodGet, "/auth/me", nil, withBearer(access))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decode(t, rec)["email"])

	rec = do(t, h, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResponsesNeverCarryPasswordHash(t *testing.T) {
	h := newTestApp(t).Router()
	register(t, h, "a@x.com", "secret123")
	access, c := login(t, h, "a@x.com", "secret123")

	recs := []*httptest.ResponseRecorder{
		do(t, h, http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "secret123"}),
		do(t, h, http.MethodGet, "/auth/refresh", nil, withCookie(c)),
		do(t, h, http.MethodGet, "/auth/me", nil, withBearer(access)),
		do(t, h, http.MethodGet, "/employee", nil, withBearer(access)),
		do(t, h, http.MethodGet, "/employee/1", nil, withBearer(access)),
		do(t, h, http.MethodGet, "/employee/email/a@x.com", nil, withBearer(access)),
	}
	for _, rec := range recs {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "$2a$")
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "secret123")
	}
}

func TestOperationalEndpoints(t *testing.T) {
	h := newTestApp(t).Router()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)

	rec := do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ready"])

	do(t, h, http.MethodPost, "/auth/check-email-duplicate", map[string]string{"email": "a@x.com"})
	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `route="/auth/check-email-duplicate"`))
}

func TestWriteJSON_EncodeFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]interface{}{"c": make(chan int)})
	assert.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("write json").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "error")
}
