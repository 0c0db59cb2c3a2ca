// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bureau-foundation/qrlogin/lib/netutil"
	"github.com/bureau-foundation/qrlogin/lib/ref"
	"github.com/bureau-foundation/qrlogin/lib/secret"
)

// DefaultAPIPrefix is the client-server API root used when
// ClientConfig.APIPrefix is empty. The r0 prefix is still served by
// Synapse and Conduit and is what the WhatsApp bridge deployments in
// the wild are configured against.
const DefaultAPIPrefix = "/_matrix/client/r0"

// TokenPlacement selects how the access token is attached to requests.
type TokenPlacement string

const (
	// TokenInQuery sends ?access_token=... on every request.
	TokenInQuery TokenPlacement = "query"
	// TokenInHeader sends Authorization: Bearer ... on every request.
	TokenInHeader TokenPlacement = "header"
)

// ParseTokenPlacement validates a placement name from configuration.
func ParseTokenPlacement(raw string) (TokenPlacement, error) {
	switch TokenPlacement(raw) {
	case TokenInQuery, TokenInHeader:
		return TokenPlacement(raw), nil
	case "":
		return TokenInQuery, nil
	}
	return "", fmt.Errorf("messaging: unknown token placement %q (want %q or %q)", raw, TokenInQuery, TokenInHeader)
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver (e.g., "http://localhost:8008").
	HomeserverURL string
	// APIPrefix is prepended to every endpoint path. Defaults to DefaultAPIPrefix.
	APIPrefix string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// MaxResponseSize caps response bodies. Zero means netutil.DefaultMaxResponseSize.
	MaxResponseSize int64
}

// Client is an unauthenticated Matrix client.
// It holds the homeserver URL and HTTP transport, shared across Sessions.
type Client struct {
	baseURL         string
	apiPrefix       string
	httpClient      *http.Client
	logger          *slog.Logger
	maxResponseSize int64
}

// NewClient creates a new unauthenticated Matrix client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}

	// Request URLs are built by concatenation on the trimmed string form,
	// so only structure is validated here.
	parsed, err := url.Parse(config.HomeserverURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("messaging: HomeserverURL %q must use http or https", config.HomeserverURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL %q has no host", config.HomeserverURL)
	}

	apiPrefix := config.APIPrefix
	if apiPrefix == "" {
		apiPrefix = DefaultAPIPrefix
	}
	if !strings.HasPrefix(apiPrefix, "/") {
		return nil, fmt.Errorf("messaging: APIPrefix %q must start with /", apiPrefix)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxResponseSize := config.MaxResponseSize
	if maxResponseSize <= 0 {
		maxResponseSize = netutil.DefaultMaxResponseSize
	}

	return &Client{
		baseURL:         strings.TrimRight(config.HomeserverURL, "/"),
		apiPrefix:       strings.TrimRight(apiPrefix, "/"),
		httpClient:      httpClient,
		logger:          logger,
		maxResponseSize: maxResponseSize,
	}, nil
}

// SessionFromToken creates an authenticated session from an existing
// access token. The token is copied into protected memory; the caller's
// string should not be retained.
func (c *Client) SessionFromToken(accessToken string, placement TokenPlacement) (*Session, error) {
	if placement == "" {
		placement = TokenInQuery
	}
	if placement != TokenInQuery && placement != TokenInHeader {
		return nil, fmt.Errorf("messaging: unknown token placement %q", placement)
	}
	token, err := secret.NewToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("messaging: access token: %w", err)
	}
	if !token.Locked() {
		c.logger.Warn("access token memory could not be mlocked; it may be swapped to disk")
	}
	return &Session{
		client:      c,
		accessToken: token,
		placement:   placement,
	}, nil
}

// Session is an authenticated Matrix session. It is safe for concurrent
// use; the token is only read.
type Session struct {
	client      *Client
	accessToken *secret.Token
	placement   TokenPlacement
}

// TokenHint returns a redacted form of the access token for logs.
func (s *Session) TokenHint() string {
	return s.accessToken.Redacted()
}

// Close releases the protected token memory. Requests made afterwards
// fail.
func (s *Session) Close() error {
	return s.accessToken.Close()
}

// WhoAmI returns the user ID that owns the session's token.
func (s *Session) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.doRequest(ctx, http.MethodGet, "/account/whoami", nil)
	if err != nil {
		return ref.UserID{}, err
	}
	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, &ProtocolError{Op: "whoami", Err: err}
	}
	if response.UserID.IsZero() {
		return ref.UserID{}, &ProtocolError{Op: "whoami", Err: fmt.Errorf("response has no user_id")}
	}
	return response.UserID, nil
}

// Sync performs one GET /sync.
func (s *Session) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.doRequest(ctx, http.MethodGet, "/sync", query)
	if err != nil {
		return nil, err
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ProtocolError{Op: "sync", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &response, nil
}

// doRequest performs an authenticated request under the API prefix and
// returns the body of a 2xx response. Non-2xx responses yield a
// *MatrixError; transport failures a *NetworkError.
func (s *Session) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	token, err := s.accessToken.Reveal()
	if err != nil {
		return nil, fmt.Errorf("messaging: session closed: %w", err)
	}

	fullPath := s.client.apiPrefix + path
	if query == nil {
		query = url.Values{}
	}
	if s.placement == TokenInQuery {
		query.Set("access_token", token)
	}
	requestURL := s.client.baseURL + fullPath
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request for %s %s: %w", method, fullPath, err)
	}
	request.Header.Set("Accept", "application/json")
	if s.placement == TokenInHeader {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := s.client.httpClient.Do(request)
	if err != nil {
		return nil, newNetworkError(method, fullPath, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body, s.client.maxResponseSize)
	if err != nil {
		return nil, newNetworkError(method, fullPath, fmt.Errorf("reading response body: %w", err))
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All Matrix error responses use the same JSON shape. Proxies in
	// front of the homeserver sometimes answer with HTML instead.
	var matrixErr MatrixError
	if jsonErr := json.Unmarshal(responseBody, &matrixErr); jsonErr != nil || matrixErr.Code == "" {
		matrixErr = MatrixError{
			Code:    ErrCodeUnknown,
			Message: strings.TrimSpace(netutil.ErrorBody(bytes.NewReader(responseBody))),
		}
	}
	matrixErr.StatusCode = response.StatusCode

	s.client.logger.Debug("homeserver returned error",
		"method", method,
		"path", fullPath,
		"status", response.StatusCode,
		"errcode", matrixErr.Code,
	)
	return nil, &matrixErr
}
