package kick

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

// Getter is the request capability a viewer session consumes. The returned
// payload is the response body; a non-2xx status is an error.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client issues HTTP requests through one assigned proxy, with one assigned
// user agent and an optional session token cookie.
type Client struct {
	http       *http.Client
	userAgent  string
	authCookie string
}

// NewClient builds a client routed through p. HTTP and HTTPS proxies tunnel
// via CONNECT; SOCKS5 uses a dialer from x/net. SOCKS4 has no dialer in
// x/net, so constructing a client for it fails and the session surfaces the
// failure as an ordinary connect error.
func NewClient(p models.Proxy, userAgent, authCookie string, timeout time.Duration) (*Client, error) {
	transport, err := buildTransport(p)
	if err != nil {
		return nil, err
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		userAgent:  userAgent,
		authCookie: authCookie,
	}, nil
}

func buildTransport(p models.Proxy) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	switch p.Protocol {
	case models.ProtocolHTTP, models.ProtocolHTTPS:
		return &http.Transport{
			Proxy:                 http.ProxyURL(p.URL()),
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}, nil

	case models.ProtocolSOCKS5:
		var auth *proxy.Auth
		if p.Username != "" || p.Password != "" {
			auth = &proxy.Auth{User: p.Username, Password: p.Password}
		}
		socks, err := proxy.SOCKS5("tcp", p.Addr(), auth, dialer)
		if err != nil {
			return nil, fmt.Errorf("build socks5 dialer: %w", err)
		}
		dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := socks.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return socks.Dial(network, addr)
		}
		return &http.Transport{
			DialContext:           dialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy protocol %q", p.Protocol)
	}
}

// Get performs a GET through the proxy and returns the response body
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	if c.authCookie != "" {
		req.Header.Set("Cookie", c.authCookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
