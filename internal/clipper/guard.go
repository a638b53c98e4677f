package clipper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// ErrBlockedURL is returned for URLs the service refuses to fetch: anything
// that is not http(s) and anything pointing at a private, loopback,
// link-local or metadata address.
var ErrBlockedURL = errors.New("url is not allowed")

var (
	blockedHostnames = map[string]struct{}{
		"localhost":                {},
		"metadata":                 {},
		"metadata.google.internal": {},
	}
	sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
)

// checkURL validates the scheme and, when the host is a literal address or a
// well-known internal name, the host itself. Resolved names are checked when
// dialing.
func checkURL(raw string, allowPrivate bool) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrBlockedURL, u.Scheme)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrBlockedURL)
	}
	if allowPrivate {
		return u, nil
	}
	if _, ok := blockedHostnames[host]; ok || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return nil, fmt.Errorf("%w: host %s", ErrBlockedURL, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && blockedAddr(addr) {
		return nil, fmt.Errorf("%w: address %s", ErrBlockedURL, addr)
	}
	return u, nil
}

func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() ||
		sharedAddressSpace.Contains(addr)
}

// guardedDialer refuses connections to blocked addresses after DNS
// resolution, which also covers redirects.
func guardedDialer(base *net.Dialer) func(ctx context.Context, network, address string) (net.Conn, error) {
	d := *base
	d.Control = func(network, address string, _ syscall.RawConn) error {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			return err
		}
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return fmt.Errorf("%w: unparsable address %s", ErrBlockedURL, host)
		}
		if blockedAddr(addr) {
			return fmt.Errorf("%w: address %s", ErrBlockedURL, addr)
		}
		return nil
	}
	return d.DialContext
}
