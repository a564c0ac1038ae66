package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// ProxyHeaders replaces a request's RemoteAddr with the client address
// forwarded by a trusted reverse proxy. Forwarding headers on requests
// from any other peer are ignored, so a client cannot choose the address
// it is logged and rate limited under.
type ProxyHeaders struct {
	trusted []netip.Prefix
}

// NewProxyHeaders parses trusted proxies given as IPs or CIDRs.
func NewProxyHeaders(proxies []string) (*ProxyHeaders, error) {
	trusted := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		if !strings.Contains(p, "/") {
			addr, err := netip.ParseAddr(p)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
			}
			addr = addr.Unmap()
			trusted = append(trusted, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		trusted = append(trusted, prefix.Masked())
	}
	return &ProxyHeaders{trusted: trusted}, nil
}

// Handler rewrites RemoteAddr before next runs. With no trusted proxies it
// returns next unchanged.
func (p *ProxyHeaders) Handler(next http.Handler) http.Handler {
	if len(p.trusted) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip, ok := p.forwardedFor(r); ok {
			r = r.WithContext(r.Context())
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

// forwardedFor returns the client address reported by a trusted peer.
// X-Forwarded-For is read right to left and the first hop that is not a
// trusted proxy wins; entries further left were written by the client.
func (p *ProxyHeaders) forwardedFor(r *http.Request) (string, bool) {
	if !p.isTrusted(getClientIP(r)) {
		return "", false
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				return "", false
			}
			if !p.isTrusted(addr.String()) {
				return addr.Unmap().String(), true
			}
		}
		return "", false
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String(), true
		}
	}
	return "", false
}

func (p *ProxyHeaders) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
