package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// Default transport settings.
const (
	// DefaultTimeout is the per-request timeout against the gateway.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond is the session-wide RPC rate. The platform
	// enforces a flood limit keyed on the authenticated session, shared by
	// every crawl using this client, so the limiter lives on the client
	// rather than on individual crawls.
	DefaultRequestsPerSecond = 1.0

	// maxResponseBody limits the response body size read from the gateway.
	maxResponseBody = 4 * 1024 * 1024 // 4MB
)

// Client is the authenticated transport handle the crawl core consumes.
// It has a single connect/disconnect lifecycle: connect once at process
// start, close once at shutdown. Individual crawls must not reconnect.
//
// Implementations must be safe for concurrent use: independent crawls share
// one Client.
type Client interface {
	// Connect establishes the session and verifies authorization.
	Connect(ctx context.Context) error

	// Close releases the session. It is safe to call more than once.
	Close() error

	// IsAuthorized reports whether the session holds an authorized
	// account.
	IsAuthorized() bool

	// ChannelRecommendations issues the one recommendation RPC for a
	// channel identifier and returns the raw chat list.
	// Errors are drawn from the package's typed set: ErrInvalidPeer,
	// ErrPrivateChannel, *FloodWaitError, or an opaque transport error.
	ChannelRecommendations(ctx context.Context, channel string) (*ChatList, error)
}

// GatewayClient implements Client over an MTProto HTTP gateway (a local
// tdlib-style bridge holding the authenticated session).
//
// Design decision: chanscout does not speak MTProto itself. The gateway
// owns credentials and session state; this client only consumes its
// recommendation endpoint, which keeps authentication a precondition
// rather than a responsibility of the crawl core.
type GatewayClient struct {
	// baseURL is the gateway root, e.g. "http://127.0.0.1:8081".
	baseURL string

	// token authenticates this process to the gateway (not to Telegram).
	token string

	// httpClient performs gateway requests, optionally through SOCKS5.
	httpClient *http.Client

	// limiter spaces RPCs session-wide.
	limiter *rate.Limiter

	// mu guards the lifecycle fields below.
	mu         sync.Mutex
	connected  bool
	authorized bool
}

// GatewayOption configures a GatewayClient.
type GatewayOption func(*GatewayClient)

// WithHTTPClient replaces the underlying HTTP client.
// Mutually exclusive with WithProxy; the last option applied wins.
func WithHTTPClient(hc *http.Client) GatewayOption {
	return func(c *GatewayClient) {
		c.httpClient = hc
	}
}

// WithRequestsPerSecond overrides the session-wide RPC rate.
func WithRequestsPerSecond(rps float64) GatewayOption {
	return func(c *GatewayClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(c *GatewayClient) {
		c.httpClient.Timeout = d
	}
}

// NewGatewayClient creates a client for the gateway at baseURL.
//
// proxyURL, when non-empty, routes gateway traffic through a SOCKS5 proxy
// in "socks5://[user:pass@]host:port" form. The constructor validates the
// proxy address but performs no network I/O; call Connect to establish the
// session.
func NewGatewayClient(baseURL, token, proxyURL string, opts ...GatewayOption) (*GatewayClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("gateway URL is required")
	}

	c := &GatewayClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}

	if proxyURL != "" {
		dialer, err := socksDialer(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxyURL, err)
		}
		c.httpClient.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// socksDialer builds a SOCKS5 dialer from a proxy URL.
func socksDialer(proxyURL string) (proxy.Dialer, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}

	return proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
}

// Connect probes the gateway session and records its authorization state.
// It is idempotent: a connected client returns immediately.
func (c *GatewayClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session", nil)
	if err != nil {
		return err
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway session probe failed: %s", resp.Status)
	}

	var session struct {
		Authorized bool `json:"authorized"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&session); err != nil {
		return fmt.Errorf("malformed session response: %w", err)
	}
	if !session.Authorized {
		return ErrNotAuthorized
	}

	c.connected = true
	c.authorized = true
	return nil
}

// Close releases the session. Safe to call more than once.
func (c *GatewayClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.authorized = false
	c.httpClient.CloseIdleConnections()
	return nil
}

// IsAuthorized reports whether Connect verified an authorized session.
func (c *GatewayClient) IsAuthorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorized
}

// ChannelRecommendations issues the recommendation RPC for a channel.
// The call blocks on the session-wide rate limiter before hitting the
// gateway, so concurrent crawls cooperatively share the flood budget.
func (c *GatewayClient) ChannelRecommendations(ctx context.Context, channel string) (*ChatList, error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return nil, ErrNotConnected
	}

	if channel == "" {
		return nil, ErrInvalidPeer
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/channels/%s/recommendations", c.baseURL, url.PathEscape(channel))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return nil, err
	}

	var list ChatList
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&list); err != nil {
		return nil, fmt.Errorf("malformed recommendation response: %w", err)
	}

	return &list, nil
}

// setAuth attaches the gateway token when one is configured.
func (c *GatewayClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// mapStatus converts a non-200 gateway response into the typed error set.
func mapStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest, http.StatusNotFound:
		return ErrInvalidPeer
	case http.StatusForbidden, http.StatusUnauthorized:
		return ErrPrivateChannel
	case http.StatusTooManyRequests, 420:
		seconds := 60
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if n, err := strconv.Atoi(ra); err == nil && n >= 0 {
				seconds = n
			}
		}
		return &FloodWaitError{Seconds: seconds}
	default:
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
}
