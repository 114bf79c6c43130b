package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from the request.
// Uses r.RemoteAddr only (no proxy headers). Use for rate limiting and logging
// when traffic goes directly to the app.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// Resolver picks the client IP, optionally honoring X-Forwarded-For when the
// app sits behind a trusted reverse proxy.
type Resolver struct {
	TrustProxy bool
}

// ClientIP returns the left-most valid X-Forwarded-For address when proxies
// are trusted, otherwise RealClientIP.
func (res Resolver) ClientIP(r *http.Request) string {
	if res.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xr) != nil {
			return xr
		}
	}
	return RealClientIP(r)
}
