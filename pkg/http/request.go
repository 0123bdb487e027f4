package http

import (
	"net"
	"net/http"
	"strings"
)

// IPExtractor resolves the client address of a request. Forwarding headers
// are honored only when the direct peer is inside a trusted proxy range.
type IPExtractor struct {
	trusted []*net.IPNet
}

// NewIPExtractor parses the trusted proxy CIDRs; invalid ranges are skipped
func NewIPExtractor(trustedProxies []string) *IPExtractor {
	e := &IPExtractor{}
	for _, cidr := range trustedProxies {
		if _, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			e.trusted = append(e.trusted, ipNet)
		}
	}
	return e
}

// ClientIP returns the first valid X-Forwarded-For entry, then X-Real-IP,
// when the peer is trusted, and the peer address otherwise
func (e *IPExtractor) ClientIP(r *http.Request) string {
	remoteIP := remoteAddr(r)
	if !e.isTrusted(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return remoteIP
}

func (e *IPExtractor) isTrusted(ip string) bool {
	if e == nil || len(e.trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipNet := range e.trusted {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
