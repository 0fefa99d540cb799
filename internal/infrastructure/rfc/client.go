// Package rfc implements the enterprise gateway on top of an HTTP bridge
// that executes RFC function modules, plus an in-memory sandbox.
package rfc

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/matreq/backend/internal/domain/integration"
)

// maxErrorBody bounds how much of a failed response is read
const maxErrorBody = 64 << 10

// ClientOptions configures the bridge client
type ClientOptions struct {
	Transport          http.RoundTripper
	InsecureSkipVerify bool
}

// Client calls function modules through the RFC bridge of one environment.
// Requests are POST {url}/rfc/{FUNCTION}?sap-client={client} with the
// import parameters as a JSON object; the response carries the export
// parameters and tables.
type Client struct {
	baseURL   string
	transport http.RoundTripper
	stateless *http.Client
}

// NewClient creates a bridge client for an environment
func NewClient(env integration.Environment, opts ClientOptions) (*Client, error) {
	base := strings.TrimRight(env.URL, "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("rfc: invalid bridge url for %s: %q", env.ID, env.URL)
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for test systems
		}
		transport = t
	}

	return &Client{
		baseURL:   base,
		transport: transport,
		stateless: &http.Client{Transport: transport},
	}, nil
}

// newStatefulClient returns an HTTP client with its own cookie jar so a
// sequence of calls shares one backend context.
func (c *Client) newStatefulClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Transport: c.transport, Jar: jar}
}

type bridgeError struct {
	Error struct {
		Key     string `json:"key"`
		Message string `json:"message"`
	} `json:"error"`
}

// invoke executes one function module. out may be nil.
func (c *Client) invoke(ctx context.Context, hc *http.Client, creds integration.Credentials, function string, in, out any) error {
	if hc == nil {
		hc = c.stateless
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("rfc: encode %s: %w", function, err)
	}

	endpoint := fmt.Sprintf("%s/rfc/%s?sap-client=%s", c.baseURL, url.PathEscape(function), url.QueryEscape(creds.Client))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rfc: build %s request: %w", function, err)
	}
	req.SetBasicAuth(creds.User, creds.Secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if creds.Language != "" {
		req.Header.Set("sap-language", creds.Language)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return integration.ErrTimeout
		}
		return &integration.TransportError{Op: function, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return integration.ErrInvalidCredentials
	case resp.StatusCode >= http.StatusInternalServerError:
		msg := readBridgeMessage(resp.Body)
		if msg == "" {
			msg = resp.Status
		}
		return &integration.TransportError{Op: function, Err: errors.New(msg)}
	case resp.StatusCode >= http.StatusBadRequest:
		return &integration.CallError{Function: function, Type: "E", Message: readBridgeMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return integration.ErrTimeout
		}
		return &integration.TransportError{Op: function, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func readBridgeMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var be bridgeError
	if json.Unmarshal(data, &be) == nil && be.Error.Message != "" {
		return be.Error.Message
	}
	return strings.TrimSpace(string(data))
}
