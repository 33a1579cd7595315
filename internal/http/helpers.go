package http

import (
	"net"
	"net/http"
	"strings"
)

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// clientIP is the rate-limit key. Forwarding headers only reach RemoteAddr
// when the server trusts them (chi's RealIP).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
