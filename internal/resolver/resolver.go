package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrResolutionFailed covers malformed targets and failed name lookups.
	ErrResolutionFailed = errors.New("resolution failed")
	// ErrNoAddressFound is returned when a lookup succeeds with no candidates.
	ErrNoAddressFound = errors.New("no address found")
)

const dnsDialTimeout = 2 * time.Second

// Resolver turns raw target strings into dialable TCP addresses.
type Resolver struct {
	resolver *net.Resolver
	servers  []string
	next     uint32
	lookup   func(ctx context.Context, host string) ([]net.IPAddr, error)
}

// New returns a Resolver. With no servers the system resolver is used,
// otherwise queries rotate over the given servers (port 53 unless specified).
func New(servers []string) *Resolver {
	r := &Resolver{}
	for _, server := range servers {
		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		r.servers = append(r.servers, server)
	}

	if len(r.servers) == 0 {
		r.resolver = net.DefaultResolver
	} else {
		r.resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				idx := atomic.AddUint32(&r.next, 1)
				server := r.servers[int(idx)%len(r.servers)]
				d := net.Dialer{Timeout: dnsDialTimeout}
				return d.DialContext(ctx, network, server)
			},
		}
	}
	r.lookup = r.resolver.LookupIPAddr
	return r
}

// Servers returns the configured DNS servers.
func (r *Resolver) Servers() []string {
	return r.servers
}

// Resolve parses raw as host or host:port and resolves the host. A missing
// or zero port is replaced with defaultPort. The first candidate address wins.
func (r *Resolver) Resolve(ctx context.Context, raw string, defaultPort uint16) (*net.TCPAddr, error) {
	host, port, err := SplitTarget(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if port == 0 {
		port = defaultPort
	}

	addr, err := r.resolveHost(ctx, host)
	if err != nil {
		return nil, err
	}
	return &net.TCPAddr{IP: addr.IP, Zone: addr.Zone, Port: int(port)}, nil
}

func (r *Resolver) resolveHost(ctx context.Context, host string) (net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return net.IPAddr{IP: ip}, nil
	}
	addrs, err := r.lookup(ctx, host)
	if err != nil {
		return net.IPAddr{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	for _, addr := range addrs {
		if addr.IP != nil {
			return addr, nil
		}
	}
	return net.IPAddr{}, fmt.Errorf("%w for %s", ErrNoAddressFound, host)
}

// SplitTarget splits raw into host and port. A target without a port, a bare
// IPv6 literal included, yields port 0.
func SplitTarget(raw string) (string, uint16, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, errors.New("empty target")
	}

	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		return host, 0, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("missing host in %q", raw)
	}
	if portStr == "" {
		return host, 0, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q in %q", portStr, raw)
	}
	return host, uint16(port), nil
}
