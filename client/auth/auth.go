// Package auth talks to the /auth endpoints. Client.Refresh is the token
// refresher used by the request pipeline.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/credentials"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// ErrRefreshFailed means the refresh credential was rejected or could not be
// used. Local credentials have been cleared by the time it is returned.
var ErrRefreshFailed = errors.New("token refresh failed")

// ErrNotLoggedIn is returned by Token when no credential is stored.
var ErrNotLoggedIn = errors.New("not logged in")

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      *credentials.Store
	sender     *pipeline.Pipeline
	logger     zerolog.Logger
}

var (
	_ pipeline.Refresher = (*Client)(nil)
	_ oauth2.TokenSource = (*Client)(nil)
)

type Option func(*Client)

// WithHTTPClient sets the client used for /auth calls. It must have a cookie
// jar; one is added when it has none.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Client) {
		a.httpClient = c
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Client) {
		a.logger = l
	}
}

func New(baseURL string, store *credentials.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	a := &Client{
		baseURL: u,
		store:   store,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient == nil {
		a.httpClient = &http.Client{}
	}
	if a.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		a.httpClient.Jar = jar
	}

	// No refresher: a 401 from /auth is final.
	a.sender, err = pipeline.New(baseURL, store,
		pipeline.WithHTTPClient(a.httpClient),
		pipeline.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// HTTPClient returns the client holding the session cookie jar.
func (a *Client) HTTPClient() *http.Client {
	return a.httpClient
}

// Login exchanges email and password for an access token, stores it, and
// keeps the refresh cookie in the jar.
func (a *Client) Login(ctx context.Context, email, password string) (credentials.Credential, error) {
	resp, err := a.sender.Send(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   apimodel.RouteAuthLogin,
		Body:   apimodel.LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return credentials.Credential{}, err
	}

	cred, err := a.save(resp)
	if err != nil {
		return credentials.Credential{}, err
	}
	a.logger.Info().Msg("logged in")
	return cred, nil
}

// Refresh obtains a new access token with the refresh cookie. On any failure
// the stored credentials are cleared and the error wraps ErrRefreshFailed.
func (a *Client) Refresh(ctx context.Context) (credentials.Credential, error) {
	resp, err := a.sender.Send(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   apimodel.RouteAuthRefresh,
	})
	if err == nil {
		var cred credentials.Credential
		if cred, err = a.save(resp); err == nil {
			a.logger.Debug().Msg("refresh succeeded")
			return cred, nil
		}
	}

	if cerr := a.store.Clear(); cerr != nil {
		a.logger.Warn().Err(cerr).Msg("failed to clear credentials")
	}
	a.logger.Info().Err(err).Msg("refresh failed")
	return credentials.Credential{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
}

// Logout tells the server to drop the session and clears local credentials.
// Local state is cleared even when the server cannot be reached.
func (a *Client) Logout(ctx context.Context) error {
	_, err := a.sender.Send(ctx, &pipeline.Request{
		Method: http.MethodPost,
		Path:   apimodel.RouteAuthLogout,
	})
	a.forgetRefreshCookie()
	if cerr := a.store.Clear(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Token returns the stored credential as an oauth2 token.
func (a *Client) Token() (*oauth2.Token, error) {
	cred, ok := a.store.Read()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return cred.OAuth2Token(), nil
}

// RefreshCookie returns the refresh token held in the jar, if any.
func (a *Client) RefreshCookie() (string, bool) {
	for _, c := range a.httpClient.Jar.Cookies(a.authURL()) {
		if c.Name == apimodel.RefreshCookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// SetRefreshCookie puts a previously saved refresh token back in the jar.
func (a *Client) SetRefreshCookie(value string) {
	a.httpClient.Jar.SetCookies(a.authURL(), []*http.Cookie{{
		Name:     apimodel.RefreshCookieName,
		Value:    value,
		Path:     apimodel.RefreshCookiePath,
		HttpOnly: true,
	}})
}

func (a *Client) forgetRefreshCookie() {
	a.httpClient.Jar.SetCookies(a.authURL(), []*http.Cookie{{
		Name:   apimodel.RefreshCookieName,
		Path:   apimodel.RefreshCookiePath,
		MaxAge: -1,
	}})
}

func (a *Client) save(resp *pipeline.Response) (credentials.Credential, error) {
	var tr apimodel.TokenResponse
	if err := resp.Decode(&tr); err != nil {
		return credentials.Credential{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return credentials.Credential{}, errors.New("token response has no access token")
	}
	return a.store.Save(tr.AccessToken)
}

func (a *Client) authURL() *url.URL {
	u := *a.baseURL
	u.Path = a.baseURL.Path + apimodel.RefreshCookiePath
	return &u
}
