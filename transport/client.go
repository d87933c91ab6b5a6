// Package transport decorates outgoing backend calls with the stored bearer
// credential and performs the one-shot refresh-and-retry on authorization
// failures.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Nishanth456/FinAdvisor/api"
	"github.com/Nishanth456/FinAdvisor/internal/config"
	apierrors "github.com/Nishanth456/FinAdvisor/internal/errors"
	"github.com/Nishanth456/FinAdvisor/tokenstore"
)

// retryState tracks where a request descriptor is in the refresh protocol.
type retryState int

const (
	stateInitial retryState = iota
	stateRetrying
	stateDone
	stateFailed
)

// Client is the authenticated HTTP client for the backend.
type Client struct {
	base  *url.URL
	http  *http.Client
	store tokenstore.Store
	log   zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the logger used for refresh-protocol events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New builds a Client against the configured base URL. The underlying HTTP
// client carries a cookie jar because the refresh endpoint authenticates via
// cookie rather than bearer token.
func New(cfg config.Config, store tokenstore.Store, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[transport.New] token store is required")
	}
	base, err := url.Parse(cfg.GetAPIBaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "[transport.New] parsing base URL")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[transport.New] cookie jar")
	}

	client := &Client{
		base:  base,
		http:  &http.Client{Timeout: cfg.GetHTTPTimeout(), Jar: jar},
		store: store,
		log:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// HTTPClient exposes the underlying client so the password-grant exchange
// shares the same cookie jar.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// BaseURL returns the backend origin with the given path resolved against it.
func (c *Client) BaseURL(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// refreshExempt reports whether a 401 from this path must pass through: the
// credential endpoints can never trigger a refresh of themselves.
func refreshExempt(path string) bool {
	return path == api.TokenPath || path == api.RefreshPath
}

// Do issues the request, driving the refresh protocol:
//
//	INITIAL  -> DONE      non-401 response, or 401 on an exempt path
//	INITIAL  -> RETRYING  401 with the retry budget unspent
//	RETRYING -> INITIAL   refresh succeeded, replay with the new token
//	RETRYING -> FAILED    refresh itself got a 401: clear token, session over
//
// Any other refresh error propagates the original authorization failure and
// leaves the token in place. The attempt counter guarantees at most one
// refresh per descriptor.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	state := stateInitial
	attempts := 0
	var resp *http.Response
	var originalDetail string

	for {
		switch state {
		case stateInitial:
			var err error
			resp, err = c.send(ctx, req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusUnauthorized || refreshExempt(req.Path) || attempts > 0 {
				state = stateDone
				continue
			}
			state = stateRetrying

		case stateRetrying:
			attempts++
			originalDetail = readDetail(resp)
			c.log.Debug().Str("path", req.Path).Msg("authorization failure, attempting token refresh")

			token, err := c.refresh(ctx)
			switch {
			case err == nil:
				if serr := c.store.Set(token); serr != nil {
					return nil, errors.Wrap(serr, "[Client.Do] storing refreshed token")
				}
				state = stateInitial
			case apierrors.IsAuthenticationError(err):
				state = stateFailed
			default:
				// Transient refresh failure: surface the original 401
				// without destroying the stored token.
				c.log.Warn().Err(err).Str("path", req.Path).Msg("token refresh failed, propagating original authorization failure")
				return nil, apierrors.Authentication(http.StatusUnauthorized, detailOr(originalDetail, "could not validate credentials"))
			}

		case stateFailed:
			if err := c.store.Clear(); err != nil {
				c.log.Error().Err(err).Msg("clearing token after failed refresh")
			}
			c.log.Info().Str("path", req.Path).Msg("refresh rejected, session expired")
			return nil, apierrors.ErrSessionExpired

		case stateDone:
			if resp.StatusCode == http.StatusUnauthorized {
				detail := readDetail(resp)
				return nil, apierrors.Authentication(http.StatusUnauthorized, detailOr(detail, "could not validate credentials"))
			}
			return resp, nil
		}
	}
}

// DoJSON runs Do and decodes the response, turning non-2xx statuses into the
// structured failure taxonomy.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "[Client.DoJSON] decoding %s response", req.Path)
		}
		return nil
	}

	detail := readDetail(resp)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return apierrors.Validation(resp.StatusCode, detailOr(detail, "request rejected"))
	}
	return errors.Errorf("[Client.DoJSON] server error (%d) on %s: %s", resp.StatusCode, req.Path, detail)
}

// send issues one attempt and classifies transport-level failures.
func (c *Client) send(ctx context.Context, req *Request) (*http.Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apierrors.Network(err)
	}
	return resp, nil
}

// refresh calls the cookie-authenticated refresh endpoint and returns the
// newly issued token. A 401 comes back as an authentication failure; every
// other failure is treated as transient.
func (c *Client) refresh(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL(api.RefreshPath), nil)
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] building request")
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", apierrors.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", apierrors.Authentication(http.StatusUnauthorized, "refresh rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("[Client.refresh] unexpected status %d", resp.StatusCode)
	}

	var tr api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", errors.Wrap(err, "[Client.refresh] decoding response")
	}
	if tr.AccessToken == "" {
		return "", errors.New("[Client.refresh] empty access token")
	}
	return tr.AccessToken, nil
}

// readDetail drains the response body and extracts the backend's detail
// message, closing the body either way.
func readDetail(resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}
	var eb api.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Detail
}

func detailOr(detail, fallback string) string {
	if detail == "" {
		return fallback
	}
	return detail
}
