package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// defaultResolveTimeout bounds lookups made without a caller context.
const defaultResolveTimeout = 30 * time.Second

// NameLookup is the subset of *net.Resolver used for symbolic resolution.
// It allows tests to substitute deterministic answers.
type NameLookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// HostResolver turns (host, service) pairs into Address lists.
type HostResolver struct {
	lookup NameLookup
	// Default timeout for resolution operations
	defaultTimeout time.Duration
}

// NewHostResolver creates a resolver backed by net.DefaultResolver.
func NewHostResolver() *HostResolver {
	return &HostResolver{
		lookup:         net.DefaultResolver,
		defaultTimeout: defaultResolveTimeout,
	}
}

// NewHostResolverWithLookup creates a resolver backed by the given lookup.
func NewHostResolverWithLookup(lookup NameLookup) *HostResolver {
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	return &HostResolver{
		lookup:         lookup,
		defaultTimeout: defaultResolveTimeout,
	}
}

var defaultHostResolver = NewHostResolver()

// ResolveHostName resolves host and service into every matching IPv4/IPv6
// address allowed by family (FamilyUnspecified allows both). With performDNS
// false both host and service must be numeric. Any failure yields an empty
// slice.
func ResolveHostName(host, service string, performDNS bool, family Family) []Address {
	return defaultHostResolver.Resolve(context.Background(), host, service, performDNS, family)
}

// ResolveHostNameContext is ResolveHostName with caller-controlled cancellation.
func ResolveHostNameContext(ctx context.Context, host, service string, performDNS bool, family Family) []Address {
	return defaultHostResolver.Resolve(ctx, host, service, performDNS, family)
}

// Resolve performs the resolution described on ResolveHostName. The result
// is never partially filled: either all matches are returned or none.
func (r *HostResolver) Resolve(ctx context.Context, host, service string, performDNS bool, family Family) []Address {
	log := NewLogger("HostResolver.Resolve").WithFields(logrus.Fields{
		"host":        host,
		"service":     service,
		"perform_dns": performDNS,
		"family":      family.String(),
	})

	if family != FamilyUnspecified && family != FamilyInet && family != FamilyInet6 {
		log.Debug("Unsupported family filter")
		return []Address{}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.defaultTimeout)
		defer cancel()
	}

	port, err := r.resolveService(ctx, service, performDNS)
	if err != nil {
		log.WithError(err, "resolve_service").Debug("Service resolution failed")
		return []Address{}
	}

	ips, err := r.resolveHost(ctx, host, performDNS, family)
	if err != nil {
		log.WithError(err, "resolve_host").Debug("Host resolution failed")
		return []Address{}
	}

	results := collectAddresses(ips, port, family)
	log.WithField("count", len(results)).Debug("Resolved host name")
	return results
}

// resolveService converts a decimal port or, when permitted, a service name.
func (r *HostResolver) resolveService(ctx context.Context, service string, performDNS bool) (uint16, error) {
	if service == "" {
		return 0, nil
	}
	if p, err := strconv.ParseUint(service, 10, 16); err == nil {
		return uint16(p), nil
	}
	if !performDNS {
		return 0, errors.New("service is not numeric")
	}

	p, err := r.lookup.LookupPort(ctx, "tcp", service)
	if err != nil {
		p, err = r.lookup.LookupPort(ctx, "udp", service)
		if err != nil {
			return 0, err
		}
	}
	return uint16(p), nil
}

// resolveHost returns candidate IPs for host. An empty host is the passive
// wildcard of the requested family.
func (r *HostResolver) resolveHost(ctx context.Context, host string, performDNS bool, family Family) ([]netip.Addr, error) {
	if host == "" {
		switch family {
		case FamilyInet:
			return []netip.Addr{netip.IPv4Unspecified()}, nil
		case FamilyInet6:
			return []netip.Addr{netip.IPv6Unspecified()}, nil
		default:
			return []netip.Addr{netip.IPv4Unspecified(), netip.IPv6Unspecified()}, nil
		}
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{ip.WithZone("")}, nil
	}
	if !performDNS {
		return nil, errors.New("host is not numeric")
	}

	answers, err := r.lookup.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}

	ips := make([]netip.Addr, 0, len(answers))
	for _, answer := range answers {
		if ip, ok := netip.AddrFromSlice(answer.IP); ok {
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

// collectAddresses filters by family and de-duplicates, preserving order.
func collectAddresses(ips []netip.Addr, port uint16, family Family) []Address {
	results := make([]Address, 0, len(ips))
	seen := make(map[Address]struct{}, len(ips))

	for _, ip := range ips {
		ip = ip.Unmap()
		switch {
		case ip.Is4() && family == FamilyInet6:
			continue
		case ip.Is6() && family == FamilyInet:
			continue
		}

		addr := AddressFromAddrPort(netip.AddrPortFrom(ip, port))
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		results = append(results, addr)
	}
	return results
}
