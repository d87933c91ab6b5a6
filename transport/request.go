package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	apierrors "github.com/Nishanth456/FinAdvisor/internal/errors"
)

// Request describes one outgoing call. The body is held as a buffered slice
// so the request can be re-issued after a token refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

// NewJSONRequest builds a Request with a JSON-encoded body.
func NewJSONRequest(method, path string, payload any) (*Request, error) {
	req := &Request{Method: method, Path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, apierrors.Request(err, "encoding request body")
		}
		req.Body = body
		req.ContentType = "application/json"
	}
	return req, nil
}

// build materializes the descriptor into an *http.Request with the bearer
// credential read fresh from the store, so a replay after refresh picks up
// the new token.
func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	ref := &url.URL{Path: req.Path}
	if req.Query != nil {
		ref.RawQuery = req.Query.Encode()
	}
	u := c.base.ResolveReference(ref)

	var body *bytes.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, apierrors.Request(errors.Wrap(err, "[build] new request"), "building request")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	if token, err := c.store.Get(); err == nil {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}
