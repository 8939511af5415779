// Package proxyutil normalizes and filters the raw proxy list before
// viewer assignment. All functions are pure; malformed entries are
// normalized or skipped rather than rejected.
package proxyutil

import (
	"strconv"
	"strings"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

const defaultPort = 8080

// commonPorts maps well-known ports to the protocol usually served there,
// used when a proxy entry carries no explicit protocol.
var commonPorts = map[int]models.ProxyProtocol{
	80:   models.ProtocolHTTP,
	443:  models.ProtocolHTTPS,
	1080: models.ProtocolSOCKS5,
	1081: models.ProtocolSOCKS4,
	8080: models.ProtocolHTTP,
	8443: models.ProtocolHTTPS,
}

var supportedProtocols = map[models.ProxyProtocol]bool{
	models.ProtocolHTTP:   true,
	models.ProtocolHTTPS:  true,
	models.ProtocolSOCKS4: true,
	models.ProtocolSOCKS5: true,
}

func inferProtocol(port int) models.ProxyProtocol {
	if p, ok := commonPorts[port]; ok {
		return p
	}
	return models.ProtocolHTTP
}

// Normalize fills in missing port and protocol with safe defaults
func Normalize(p models.Proxy) models.Proxy {
	if p.Port == 0 {
		p.Port = defaultPort
	}
	if p.Protocol == "" {
		p.Protocol = inferProtocol(p.Port)
	}
	return p
}

// Filter normalizes every proxy and keeps only those whose resolved
// protocol is supported. Relative order is preserved.
func Filter(proxies []models.Proxy) []models.Proxy {
	out := make([]models.Proxy, 0, len(proxies))
	for _, p := range proxies {
		n := Normalize(p)
		if supportedProtocols[n.Protocol] {
			out = append(out, n)
		}
	}
	return out
}

// ParseList parses a proxy list blob, one entry per line. Supported forms:
//
//	host
//	host:port
//	host:port:user:pass
//	user:pass@host:port
//
// each optionally prefixed with "protocol://". Empty lines, lines starting
// with '#', and lines that do not match any form are skipped.
func ParseList(text string) []models.Proxy {
	var out []models.Proxy
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, ok := parseLine(line)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseLine(line string) (models.Proxy, bool) {
	var p models.Proxy

	if scheme, rest, found := strings.Cut(line, "://"); found {
		p.Protocol = models.ProxyProtocol(strings.ToLower(scheme))
		line = rest
	}

	// user:pass@host:port
	if auth, hostport, found := strings.Cut(line, "@"); found {
		user, pass, ok := strings.Cut(auth, ":")
		if !ok {
			return models.Proxy{}, false
		}
		p.Username = user
		p.Password = pass
		line = hostport
	}

	parts := strings.Split(line, ":")
	switch len(parts) {
	case 1:
		// bare host; port defaulted during normalization
		p.Host = parts[0]
	case 2:
		port, err := strconv.Atoi(parts[1])
		if err != nil || port < 1 || port > 65535 {
			return models.Proxy{}, false
		}
		p.Host = parts[0]
		p.Port = port
	case 4:
		if p.Username != "" {
			return models.Proxy{}, false
		}
		port, err := strconv.Atoi(parts[1])
		if err != nil || port < 1 || port > 65535 {
			return models.Proxy{}, false
		}
		p.Host = parts[0]
		p.Port = port
		p.Username = parts[2]
		p.Password = parts[3]
	default:
		return models.Proxy{}, false
	}

	if p.Host == "" || strings.ContainsAny(p.Host, " \t") {
		return models.Proxy{}, false
	}
	return p, true
}

// ParseUserAgents splits a user-agent blob into one agent per line
func ParseUserAgents(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
