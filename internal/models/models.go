package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ProxyProtocol identifies the tunneling protocol of a proxy entry
type ProxyProtocol string

const (
	ProtocolHTTP   ProxyProtocol = "http"
	ProtocolHTTPS  ProxyProtocol = "https"
	ProtocolSOCKS4 ProxyProtocol = "socks4"
	ProtocolSOCKS5 ProxyProtocol = "socks5"
)

// Proxy is a normalized proxy entry parsed from the proxy list
type Proxy struct {
	Protocol ProxyProtocol `json:"protocol,omitempty"`
	Host     string        `json:"host"`
	Port     int           `json:"port,omitempty"`
	Username string        `json:"username,omitempty"`
	Password string        `json:"password,omitempty"`
}

// Addr returns the host:port form used for dialing
func (p Proxy) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// URL returns the proxy as a URL suitable for http.ProxyURL
func (p Proxy) URL() *url.URL {
	u := &url.URL{
		Scheme: string(p.Protocol),
		Host:   p.Addr(),
	}
	if p.Username != "" || p.Password != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// ViewerMode distinguishes anonymous from authenticated viewer sessions
type ViewerMode string

const (
	ViewerModeAnonymous     ViewerMode = "anonymous"
	ViewerModeAuthenticated ViewerMode = "authenticated"
)

// KickAccount is an authenticatable identity from the account pool.
// Username is the unique key across the collection.
type KickAccount struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Token    string     `json:"token,omitempty"`
	Password string     `json:"password,omitempty"`
	LastUsed *time.Time `json:"lastUsed,omitempty"`
	IsActive bool       `json:"isActive"`
}

// AccountUpdate is a partial update for an existing account.
// Nil fields are left unchanged.
type AccountUpdate struct {
	Email    *string `json:"email,omitempty"`
	Token    *string `json:"token,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ViewerTestRequest is the payload of a startViewerTest message
type ViewerTestRequest struct {
	ChannelURL           string `json:"channelUrl"`
	AnonymousViewers     int    `json:"anonymousViewers"`
	AuthenticatedViewers int    `json:"authenticatedViewers"`
	Duration             int    `json:"duration"` // seconds
}

// Validate checks the request before any session is spawned
func (r ViewerTestRequest) Validate() error {
	if strings.TrimSpace(r.ChannelURL) == "" {
		return fmt.Errorf("channelUrl is required")
	}
	if r.AnonymousViewers < 0 || r.AuthenticatedViewers < 0 {
		return fmt.Errorf("viewer counts must be non-negative")
	}
	if r.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

// Event is one telemetry message emitted by a viewer session or the
// orchestrator and relayed verbatim to the UI. Zero-valued fields are
// omitted on the wire; ViewerDelta carries the original totalViewers
// increment/decrement semantics.
type Event struct {
	Log               string `json:"log,omitempty"`
	ViewerDelta       int    `json:"totalViewers,omitempty"`
	ActiveViewers     *int   `json:"activeViewers,omitempty"`
	TotalConnections  *int   `json:"totalConnections,omitempty"`
	AvailableAccounts *int   `json:"availableAccounts,omitempty"`
	TestEnded         bool   `json:"-"`
}

// APIError represents an error response
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// APISuccess represents a success response
type APISuccess struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
