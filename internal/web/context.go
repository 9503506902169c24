package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/unitconv/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so the
// service can attach them to history entries.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClient(ctx, core.Client{IP: clientIP(r), UserAgent: r.UserAgent()})
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already replaced with the forwarded address for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
