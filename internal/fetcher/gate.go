package fetcher

import (
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// ErrUnsafeURL is returned for URLs that must never be fetched.
var ErrUnsafeURL = eris.New("unsafe url")

// Gate rejects URLs that could reach the host itself or an internal network.
type Gate struct {
	allowed map[string]struct{}
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithAllowedHosts exempts the named hosts from the address checks. Only test
// servers should need this.
func WithAllowedHosts(hosts ...string) GateOption {
	return func(g *Gate) {
		for _, h := range hosts {
			g.allowed[strings.ToLower(h)] = struct{}{}
		}
	}
}

// NewGate creates a Gate.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{allowed: make(map[string]struct{})}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Normalize trims raw and adds https:// when it has no scheme. Registry
// websites are usually stored as a bare "www.example.no".
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw
}

// Check normalizes raw and returns the parsed URL if it is safe to fetch.
func (g *Gate) Check(raw string) (*url.URL, error) {
	norm := Normalize(raw)
	if norm == "" {
		return nil, eris.Wrap(ErrUnsafeURL, "empty url")
	}
	u, err := url.Parse(norm)
	if err != nil {
		return nil, eris.Wrapf(ErrUnsafeURL, "parse %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Wrapf(ErrUnsafeURL, "scheme %q", u.Scheme)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return nil, eris.Wrapf(ErrUnsafeURL, "no host in %q", raw)
	}
	if _, ok := g.allowed[host]; ok {
		return u, nil
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, eris.Wrapf(ErrUnsafeURL, "host %q", host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !publicAddr(addr) {
		return nil, eris.Wrapf(ErrUnsafeURL, "address %s", host)
	}
	return u, nil
}

// checkDial is a net.Dialer Control hook. It sees the resolved address, so
// hostnames that point into private space are caught even when Check let
// the name through.
func (g *Gate) checkDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return eris.Wrapf(ErrUnsafeURL, "dial %q: %v", address, err)
	}
	if _, ok := g.allowed[strings.ToLower(host)]; ok {
		return nil
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return eris.Wrapf(ErrUnsafeURL, "dial %q: %v", address, err)
	}
	if !publicAddr(addr) {
		return eris.Wrapf(ErrUnsafeURL, "dial %s", address)
	}
	return nil
}

func publicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	ip := net.IP(addr.AsSlice())
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsUnspecified() ||
		ip.IsMulticast())
}
