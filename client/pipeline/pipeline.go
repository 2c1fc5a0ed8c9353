// Package pipeline sends every authenticated request. It attaches the stored
// bearer token and, on a 401, refreshes once and retries once.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-checkin/client/credentials"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds each attempt of a request.
const DefaultTimeout = 15 * time.Second

// CredentialSource is the part of credentials.Store the pipeline needs.
type CredentialSource interface {
	Read() (credentials.Credential, bool)
	Clear() error
}

// Refresher obtains a new access credential.
type Refresher interface {
	Refresh(ctx context.Context) (credentials.Credential, error)
}

type Pipeline struct {
	baseURL       *url.URL
	httpClient    *http.Client
	creds         CredentialSource
	refresher     Refresher
	timeout       time.Duration
	onAuthExpired func(error)
	logger        zerolog.Logger
}

type Option func(*Pipeline)

// WithHTTPClient sets the client used for requests. Share its cookie jar with
// the refresher when the server scopes cookies to the whole origin.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) {
		p.httpClient = c
	}
}

func WithRefresher(r Refresher) Option {
	return func(p *Pipeline) {
		p.refresher = r
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithAuthExpiredHandler is called after a failed refresh, once local
// credentials have been cleared. Applications use it to show the login screen.
func WithAuthExpiredHandler(f func(error)) Option {
	return func(p *Pipeline) {
		p.onAuthExpired = f
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func New(baseURL string, creds CredentialSource, opts ...Option) (*Pipeline, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	p := &Pipeline{
		baseURL:    u,
		httpClient: http.DefaultClient,
		creds:      creds,
		timeout:    DefaultTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Request describes one logical call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // encoded as JSON when non-nil
	Header http.Header
}

// Response is a 2xx response with its body read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// attempt is the bookkeeping of one logical call. It is never shared between
// calls.
type attempt struct {
	retried    bool
	credential *credentials.Credential
}

// Send performs the request. Non-2xx responses are returned as *HTTPError or
// *ValidationError; transport failures as *NetworkError. A 401 triggers one
// refresh and one retry; if the refresh fails the error wraps
// ErrAuthenticationExpired.
func (p *Pipeline) Send(ctx context.Context, req *Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var att attempt
	for {
		resp, err := p.do(ctx, req, body, &att)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && !att.retried && p.refresher != nil {
			att.retried = true
			p.logger.Debug().Str("path", req.Path).Msg("401 received, refreshing")

			cred, rerr := p.refresher.Refresh(ctx)
			if rerr != nil {
				return nil, p.authExpired(rerr)
			}
			att.credential = &cred
			p.logger.Debug().Str("path", req.Path).Msg("retrying after refresh")
			continue
		}

		if !isSuccess(resp.StatusCode) {
			return nil, NewHTTPError(resp.StatusCode, resp.Body)
		}
		return resp, nil
	}
}

func (p *Pipeline) authExpired(cause error) error {
	if err := p.creds.Clear(); err != nil {
		p.logger.Warn().Err(err).Msg("failed to clear credentials")
	}
	err := fmt.Errorf("%w: %w", ErrAuthenticationExpired, cause)
	p.logger.Info().Err(cause).Msg("authentication expired")
	if p.onAuthExpired != nil {
		p.onAuthExpired(err)
	}
	return err
}

func (p *Pipeline) do(ctx context.Context, req *Request, body []byte, att *attempt) (*Response, error) {
	target := p.resolve(req)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if att.credential != nil {
		att.credential.OAuth2Token().SetAuthHeader(httpReq)
	} else if cred, ok := p.creds.Read(); ok {
		cred.OAuth2Token().SetAuthHeader(httpReq)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}

	p.logger.Debug().Str("method", req.Method).Str("path", req.Path).Int("status", resp.StatusCode).Msg("response")
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (p *Pipeline) resolve(req *Request) string {
	u := *p.baseURL
	u.Path = p.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}
