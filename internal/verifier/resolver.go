package verifier

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/miekg/dns"
)

const resolvConfPath = "/etc/resolv.conf"

// SystemResolver uses the runtime's resolver. The standard library reports
// a name without MX records as not found, so with this resolver such domains
// surface as unreachable rather than as having zero records.
type SystemResolver struct {
	Resolver *net.Resolver
}

func (r *SystemResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return r.Resolver.LookupMX(ctx, domain)
}

// DNSClientResolver sends exactly one MX query to a single nameserver. An
// authoritative empty answer yields zero records and a nil error.
type DNSClientResolver struct {
	Server string
	Client *dns.Client
}

// RcodeError reports a DNS response that was received but not successful.
type RcodeError struct {
	Domain string
	Rcode  int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("mx query for %s returned %s", e.Domain, dns.RcodeToString[e.Rcode])
}

func (r *DNSClientResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	m.RecursionDesired = true

	in, _, err := r.Client.ExchangeContext(ctx, m, r.Server)
	if err != nil {
		return nil, fmt.Errorf("mx query failed: %w", err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, &RcodeError{Domain: domain, Rcode: in.Rcode}
	}

	mxs := []*net.MX{}
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			mxs = append(mxs, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}

	return mxs, nil
}

// NewDNSClientResolver targets server (host or host:port). When server is
// empty the first nameserver of /etc/resolv.conf is used.
func NewDNSClientResolver(server string) (*DNSClientResolver, error) {
	if server == "" {
		cc, err := dns.ClientConfigFromFile(resolvConfPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read resolver config: %w", err)
		}
		if len(cc.Servers) == 0 {
			return nil, errors.New("no nameservers in " + resolvConfPath)
		}
		server = net.JoinHostPort(cc.Servers[0], cc.Port)
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	return &DNSClientResolver{Server: server, Client: new(dns.Client)}, nil
}

// NewResolver returns the resolver selected by APP_DNS_RESOLVER.
func NewResolver(cfg *config.Config) (MXResolver, error) {
	switch cfg.AppDNSResolver {
	case config.ResolverDNS:
		return NewDNSClientResolver(cfg.AppDNSServer)
	case config.ResolverSystem, "":
		return &SystemResolver{Resolver: net.DefaultResolver}, nil
	default:
		return nil, fmt.Errorf("unknown dns resolver: %s", cfg.AppDNSResolver)
	}
}
