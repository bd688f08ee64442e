package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

func newTestStack(t *testing.T) (chi.Router, *shared.SessionManager, *shared.CSRFManager) {
	t.Helper()
	t.Setenv("PIXELHAVEN_TEST_MODE", "1")
	RefreshTestMode()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "ph_session", "session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/submit", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r, sessions, csrf
}

func TestSessionCookieIssuedOnFirstRequest(t *testing.T) {
	r, _, _ := newTestStack(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "ph_session", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCSRFSkippedForReads(t *testing.T) {
	r, _, _ := newTestStack(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsWriteWithoutToken(t *testing.T) {
	r, _, _ := newTestStack(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFAcceptsValidToken(t *testing.T) {
	r, sessions, csrf := newTestStack(t)

	// Establish a session and capture the cookie.
	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Load the stored session and mint its token.
	loadReq := httptest.NewRequest(http.MethodGet, "/ping", nil)
	loadReq.AddCookie(cookies[0])
	sess, err := sessions.Load(loadReq.Context(), loadReq)
	require.NoError(t, err)
	token, err := csrf.EnsureToken(loadReq.Context(), sess)
	require.NoError(t, err)
	require.NoError(t, sessions.Commit(loadReq.Context(), httptest.NewRecorder(), loadReq, sess))

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookies[0])
	req.Header.Set(shared.CSRFHeader, token)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
