package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/auth"
	"github.com/jrsteele09/go-checkin/client/credentials"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/stretchr/testify/require"
)

// authServer is a minimal stand-in for the /auth endpoints.
type authServer struct {
	mu        sync.Mutex
	sessions  map[string]bool
	issued    int
	loggedOut bool
	srv       *httptest.Server
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()
	as := &authServer{sessions: map[string]bool{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+apimodel.RouteAuthLogin, func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		as.mu.Lock()
		as.sessions["rt-1"] = true
		as.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: apimodel.RefreshCookieName, Value: "rt-1", Path: apimodel.RefreshCookiePath, HttpOnly: true})
		as.token(w)
	})

	mux.HandleFunc("POST "+apimodel.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(apimodel.RefreshCookieName)
		as.mu.Lock()
		ok := err == nil && as.sessions[c.Value]
		as.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid refresh token"}`))
			return
		}
		as.token(w)
	})

	mux.HandleFunc("POST "+apimodel.RouteAuthLogout, func(w http.ResponseWriter, r *http.Request) {
		as.mu.Lock()
		defer as.mu.Unlock()
		if c, err := r.Cookie(apimodel.RefreshCookieName); err == nil {
			delete(as.sessions, c.Value)
		}
		as.loggedOut = true
		w.WriteHeader(http.StatusNoContent)
	})

	as.srv = httptest.NewServer(mux)
	t.Cleanup(as.srv.Close)
	return as
}

func (as *authServer) token(w http.ResponseWriter) {
	as.mu.Lock()
	as.issued++
	n := as.issued
	as.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(apimodel.TokenResponse{AccessToken: "at-" + string(rune('0'+n)), TokenType: "Bearer", ExpiresIn: 900})
}

func (as *authServer) wasLoggedOut() bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.loggedOut
}

func (as *authServer) revokeAll() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.sessions = map[string]bool{}
}

func newClient(t *testing.T, baseURL string) (*auth.Client, *credentials.Store) {
	t.Helper()
	store := credentials.NewStore(credentials.NewMemoryLocation(), credentials.NewMemoryLocation())
	c, err := auth.New(baseURL, store)
	require.NoError(t, err)
	return c, store
}

func TestLogin(t *testing.T) {
	as := newAuthServer(t)

	t.Run("success stores token and keeps refresh cookie", func(t *testing.T) {
		c, store := newClient(t, as.srv.URL)
		cred, err := c.Login(context.Background(), "a@example.com", "correct horse")
		require.NoError(t, err)
		require.NotEmpty(t, cred.AccessToken)

		stored, ok := store.Read()
		require.True(t, ok)
		require.Equal(t, cred.AccessToken, stored.AccessToken)

		rt, ok := c.RefreshCookie()
		require.True(t, ok)
		require.Equal(t, "rt-1", rt)

		tok, err := c.Token()
		require.NoError(t, err)
		require.Equal(t, cred.AccessToken, tok.AccessToken)
		require.Equal(t, "Bearer", tok.Type())
	})

	t.Run("bad password", func(t *testing.T) {
		c, store := newClient(t, as.srv.URL)
		_, err := c.Login(context.Background(), "a@example.com", "wrong")
		require.Equal(t, http.StatusUnauthorized, pipeline.StatusCode(err))
		require.EqualError(t, err, "http 401: invalid credentials")

		_, ok := store.Read()
		require.False(t, ok)
		_, err = c.Token()
		require.ErrorIs(t, err, auth.ErrNotLoggedIn)
	})
}

func TestRefresh(t *testing.T) {
	as := newAuthServer(t)
	c, store := newClient(t, as.srv.URL)
	first, err := c.Login(context.Background(), "a@example.com", "correct horse")
	require.NoError(t, err)

	t.Run("success replaces stored token", func(t *testing.T) {
		cred, err := c.Refresh(context.Background())
		require.NoError(t, err)
		require.NotEqual(t, first.AccessToken, cred.AccessToken)

		stored, ok := store.Read()
		require.True(t, ok)
		require.Equal(t, cred.AccessToken, stored.AccessToken)
	})

	t.Run("rejection clears credentials", func(t *testing.T) {
		as.revokeAll()
		_, err := c.Refresh(context.Background())
		require.ErrorIs(t, err, auth.ErrRefreshFailed)
		require.Equal(t, http.StatusUnauthorized, pipeline.StatusCode(err))

		_, ok := store.Read()
		require.False(t, ok)
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		c, store := newClient(t, addr)
		_, err := store.Save("old")
		require.NoError(t, err)

		_, err = c.Refresh(context.Background())
		require.ErrorIs(t, err, auth.ErrRefreshFailed)
		var ne *pipeline.NetworkError
		require.True(t, errors.As(err, &ne))
		_, ok := store.Read()
		require.False(t, ok)
	})
}

func TestRefreshCookiePersistence(t *testing.T) {
	as := newAuthServer(t)
	c, _ := newClient(t, as.srv.URL)
	_, err := c.Login(context.Background(), "a@example.com", "correct horse")
	require.NoError(t, err)
	rt, ok := c.RefreshCookie()
	require.True(t, ok)

	// A new process restores the saved cookie and can refresh.
	restored, store := newClient(t, as.srv.URL)
	_, ok = restored.RefreshCookie()
	require.False(t, ok)
	restored.SetRefreshCookie(rt)

	cred, err := restored.Refresh(context.Background())
	require.NoError(t, err)
	stored, ok := store.Read()
	require.True(t, ok)
	require.Equal(t, cred.AccessToken, stored.AccessToken)
}

func TestLogout(t *testing.T) {
	as := newAuthServer(t)
	c, store := newClient(t, as.srv.URL)
	_, err := c.Login(context.Background(), "a@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	require.True(t, as.wasLoggedOut())

	_, ok := store.Read()
	require.False(t, ok)
	_, ok = c.RefreshCookie()
	require.False(t, ok)

	_, err = c.Refresh(context.Background())
	require.ErrorIs(t, err, auth.ErrRefreshFailed)
}

func TestClientAsPipelineRefresher(t *testing.T) {
	as := newAuthServer(t)
	c, store := newClient(t, as.srv.URL)
	_, err := c.Login(context.Background(), "a@example.com", "correct horse")
	require.NoError(t, err)

	// The API accepts only the second token ever issued.
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	p, err := pipeline.New(api.URL, store, pipeline.WithRefresher(c))
	require.NoError(t, err)
	_, err = p.Send(context.Background(), &pipeline.Request{Method: http.MethodGet, Path: "/api/thing"})
	require.NoError(t, err)

	stored, _ := store.Read()
	require.Equal(t, "at-2", stored.AccessToken)
}
