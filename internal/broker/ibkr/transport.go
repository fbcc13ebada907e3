package ibkr

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wheelhouse/internal/broker"
)

// Transport is the raw wire boundary. It owns the connect/disconnect
// lifecycle and returns unparsed JSON payloads keyed by account code.
// Implementations must return a *broker.ConnectionError when they
// cannot connect, never partial data.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error

	FetchRawAccount(ctx context.Context, accountCode string) ([]byte, error)
	FetchRawPositions(ctx context.Context, accountCode string) ([]byte, error)
	FetchRawOrders(ctx context.Context, accountCode string) ([]byte, error)
	FetchRawExecutions(ctx context.Context, accountCode string) ([]byte, error)
	FetchRawOptionEvents(ctx context.Context, accountCode string) ([]byte, error)
}

// gatewayTransport talks to an IBKR gateway's REST surface.
type gatewayTransport struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewGatewayTransport constructs the HTTP transport from config.
func NewGatewayTransport(cfg Config) (Transport, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	parsed, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, &broker.ConfigError{Reason: fmt.Sprintf("invalid ibkr base_url: %v", err)}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		// Local gateways ship self-signed certs.
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true // #nosec G402
		}
	}
	return &gatewayTransport{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: transport,
		},
	}, nil
}

func (t *gatewayTransport) Connect(ctx context.Context) error {
	// The gateway keeps its own brokerage session; a ping on the auth
	// status endpoint is enough to prove the session is live.
	_, err := t.get(ctx, "/v1/api/iserver/auth/status")
	if err != nil {
		return err
	}
	return nil
}

func (t *gatewayTransport) Disconnect() error {
	// Session belongs to the gateway process; nothing to tear down.
	return nil
}

func (t *gatewayTransport) FetchRawAccount(ctx context.Context, accountCode string) ([]byte, error) {
	return t.get(ctx, fmt.Sprintf("/v1/api/portfolio/%s/summary", url.PathEscape(accountCode)))
}

func (t *gatewayTransport) FetchRawPositions(ctx context.Context, accountCode string) ([]byte, error) {
	return t.get(ctx, fmt.Sprintf("/v1/api/portfolio/%s/positions/0", url.PathEscape(accountCode)))
}

func (t *gatewayTransport) FetchRawOrders(ctx context.Context, accountCode string) ([]byte, error) {
	return t.get(ctx, fmt.Sprintf("/v1/api/iserver/account/%s/orders", url.PathEscape(accountCode)))
}

func (t *gatewayTransport) FetchRawExecutions(ctx context.Context, accountCode string) ([]byte, error) {
	return t.get(ctx, fmt.Sprintf("/v1/api/iserver/account/%s/trades", url.PathEscape(accountCode)))
}

func (t *gatewayTransport) FetchRawOptionEvents(ctx context.Context, accountCode string) ([]byte, error) {
	return t.get(ctx, fmt.Sprintf("/v1/api/portfolio/%s/option-events", url.PathEscape(accountCode)))
}

func (t *gatewayTransport) get(ctx context.Context, path string) ([]byte, error) {
	endpoint, err := t.baseURL.Parse(path)
	if err != nil {
		return nil, &broker.ConfigError{Reason: fmt.Sprintf("invalid endpoint %q: %v", path, err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &broker.ConnectionError{Reason: "gateway request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &broker.ConnectionError{Reason: "reading gateway response failed", Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &broker.RateLimitError{Reason: fmt.Sprintf("gateway throttled %s", path)}
	case resp.StatusCode >= 500:
		return nil, &broker.ConnectionError{Reason: fmt.Sprintf("gateway %s returned %d", path, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("gateway %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
