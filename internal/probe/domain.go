package probe

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/model"
)

var domainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]*\.[a-zA-Z]{2,}$`)

// WhoisFunc returns the raw WHOIS text for a domain.
type WhoisFunc func(ctx context.Context, domain string) (string, error)

// MXResolver is satisfied by *net.Resolver.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DomainOption configures a DomainProbe.
type DomainOption func(*DomainProbe)

// WithWhois replaces the WHOIS lookup.
func WithWhois(fn WhoisFunc) DomainOption {
	return func(p *DomainProbe) { p.whois = fn }
}

// WithResolver replaces the MX resolver.
func WithResolver(r MXResolver) DomainOption {
	return func(p *DomainProbe) { p.resolver = r }
}

// DomainProbe checks WHOIS, TLS and MX for a website host.
type DomainProbe struct {
	fetch    fetcher.Fetcher
	whois    WhoisFunc
	resolver MXResolver
}

// NewDomainProbe creates a DomainProbe. whoisTimeout bounds the default
// WHOIS client.
func NewDomainProbe(f fetcher.Fetcher, whoisTimeout time.Duration, opts ...DomainOption) *DomainProbe {
	p := &DomainProbe{
		fetch:    f,
		whois:    defaultWhois(whoisTimeout),
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultWhois(timeout time.Duration) WhoisFunc {
	client := whois.NewClient().SetTimeout(timeout)
	return func(ctx context.Context, domain string) (string, error) {
		type result struct {
			text string
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			text, err := client.Whois(domain)
			ch <- result{text, err}
		}()
		select {
		case r := <-ch:
			return r.text, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Probe runs the three checks concurrently for the website host. TLS is
// checked against the host as registered; WHOIS and MX use the bare domain
// without "www.". Each check fills only its own sub-section; none can fail
// the others.
func (p *DomainProbe) Probe(ctx context.Context, host string) model.Section[model.DomainHealth] {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	domain := strings.TrimPrefix(host, "www.")
	if !domainRe.MatchString(domain) {
		return model.Failed[model.DomainHealth](ReasonInvalidDomain)
	}

	health := model.DomainHealth{Domain: domain}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		health.Whois = p.checkWhois(gctx, domain)
		return nil
	})
	g.Go(func() error {
		health.TLS = p.checkTLS(gctx, host)
		return nil
	})
	g.Go(func() error {
		health.MX = p.checkMX(gctx, domain)
		return nil
	})
	_ = g.Wait()

	return model.Present(health)
}

func (p *DomainProbe) checkWhois(ctx context.Context, domain string) model.Section[model.Whois] {
	text, err := p.whois(ctx, domain)
	if err != nil {
		zap.L().Debug("whois lookup failed", zap.String("domain", domain), zap.Error(err))
		return model.Failed[model.Whois]("WHOIS lookup failed: " + err.Error())
	}
	info, err := whoisparser.Parse(text)
	if err != nil {
		return model.Failed[model.Whois]("WHOIS parse failed: " + err.Error())
	}
	var w model.Whois
	if info.Registrar != nil {
		w.Registrar = info.Registrar.Name
	}
	if info.Domain != nil {
		w.ExpirationDate = info.Domain.ExpirationDate
	}
	return model.Present(w)
}

// checkTLS treats any HTTP answer as reachable and a valid certificate plus a
// 2xx/3xx final status as valid.
func (p *DomainProbe) checkTLS(ctx context.Context, host string) model.Section[model.TLSCheck] {
	page, err := p.fetch.Fetch(ctx, "https://"+host)
	switch {
	case err == nil:
		return model.Present(model.TLSCheck{Reachable: true, Valid: page.StatusCode >= 200 && page.StatusCode < 400})
	case fetcher.IsCertificateError(err):
		return model.Present(model.TLSCheck{Reachable: true, Valid: false})
	}
	var blocked *fetcher.BlockedError
	if errors.As(err, &blocked) {
		return model.Present(model.TLSCheck{Reachable: true, Valid: false})
	}
	if errors.Is(err, fetcher.ErrUnsafeURL) {
		return model.Failed[model.TLSCheck](fetchReason(err))
	}
	return model.Present(model.TLSCheck{Reachable: false, Valid: false})
}

func (p *DomainProbe) checkMX(ctx context.Context, domain string) model.Section[[]string] {
	records, err := p.resolver.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return model.Failed[[]string](model.NoMXRecords)
		}
		return model.Failed[[]string]("MX lookup failed: " + err.Error())
	}
	hosts := make([]string, 0, len(records))
	for _, r := range records {
		hosts = append(hosts, strings.TrimSuffix(r.Host, "."))
	}
	if len(hosts) == 0 {
		return model.Failed[[]string](model.NoMXRecords)
	}
	return model.Present(hosts)
}
