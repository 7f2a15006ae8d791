package utils

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the caller's address from the usual proxy headers,
// falling back to RemoteAddr. Invalid entries are skipped.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, ip := range strings.Split(fwd, ",") {
			if ip = strings.TrimSpace(ip); isValidIP(ip) {
				return ip
			}
		}
	}

	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); isValidIP(ip) {
			return ip
		}
	}

	if forwarded := r.Header.Get("Forwarded"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ";") {
			part = strings.TrimSpace(part)
			if maybe, ok := strings.CutPrefix(part, "for="); ok {
				if maybe = strings.Trim(maybe, "\""); isValidIP(maybe) {
					return maybe
				}
			}
		}
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && isValidIP(ip) {
		return ip
	}
	return r.RemoteAddr
}

func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
