package probe

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/salgsmotor/internal/model"
)

const sampleWhois = `Domain Name: FJORDFRISOR.COM
Registry Domain ID: 123456789_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.example-registrar.com
Registrar URL: http://www.example-registrar.com
Updated Date: 2024-05-01T10:00:00Z
Creation Date: 2019-05-02T10:00:00Z
Registry Expiry Date: 2027-05-02T10:00:00Z
Registrar: Example Registrar AS
Registrar IANA ID: 9999
Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
Name Server: NS1.EXAMPLE-REGISTRAR.COM
Name Server: NS2.EXAMPLE-REGISTRAR.COM
DNSSEC: unsigned
`

type fakeResolver struct {
	records []*net.MX
	err     error
}

func (r fakeResolver) LookupMX(context.Context, string) ([]*net.MX, error) {
	return r.records, r.err
}

func staticWhois(text string, err error) WhoisFunc {
	return func(context.Context, string) (string, error) { return text, err }
}

func TestDomainProbe_AllChecks(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().html("https://fjordfrisor.com", 200, "<html></html>")
	p := NewDomainProbe(f, 0,
		WithWhois(staticWhois(sampleWhois, nil)),
		WithResolver(fakeResolver{records: []*net.MX{{Host: "mx1.example.net.", Pref: 10}, {Host: "mx2.example.net.", Pref: 20}}}),
	)

	health, ok := p.Probe(context.Background(), " FjordFrisor.com ").Get()
	require.True(t, ok)
	assert.Equal(t, "fjordfrisor.com", health.Domain)

	w, ok := health.Whois.Get()
	require.True(t, ok, health.Whois.Reason())
	assert.Contains(t, w.Registrar, "Example Registrar")
	assert.Contains(t, w.ExpirationDate, "2027-05-02")

	tlsCheck, ok := health.TLS.Get()
	require.True(t, ok)
	assert.Equal(t, model.TLSCheck{Reachable: true, Valid: true}, tlsCheck)

	mx, ok := health.MX.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"mx1.example.net", "mx2.example.net"}, mx)
}

func TestDomainProbe_InvalidDomain(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher()
	p := NewDomainProbe(f, 0, WithWhois(staticWhois("", nil)), WithResolver(fakeResolver{}))
	for _, d := range []string{"", "localhost", "-bad.no", "fjord frisor.no", "http://fjordfrisor.no", "fjordfrisor.n"} {
		sec := p.Probe(context.Background(), d)
		assert.Equal(t, ReasonInvalidDomain, sec.Reason(), d)
	}
	assert.Empty(t, f.requested())
}

func TestDomainProbe_IndependentFailures(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().fail("https://fjordfrisor.no", errors.New("dial tcp: connection refused"))
	p := NewDomainProbe(f, 0,
		WithWhois(staticWhois("", errors.New("i/o timeout"))),
		WithResolver(fakeResolver{err: &net.DNSError{Err: "no such host", Name: "fjordfrisor.no", IsNotFound: true}}),
	)

	health, ok := p.Probe(context.Background(), "fjordfrisor.no").Get()
	require.True(t, ok, "sub-check failures never fail the section")

	assert.Equal(t, model.StateFailed, health.Whois.State())
	assert.Contains(t, health.Whois.Reason(), "WHOIS lookup failed")

	tlsCheck, ok := health.TLS.Get()
	require.True(t, ok)
	assert.Equal(t, model.TLSCheck{Reachable: false, Valid: false}, tlsCheck)

	assert.Equal(t, model.NoMXRecords, health.MX.Reason())
}

func TestDomainProbe_TLSClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		f    *fakeFetcher
		want model.TLSCheck
	}{
		{"ok", newFakeFetcher().html("https://fjordfrisor.no", 200, ""), model.TLSCheck{Reachable: true, Valid: true}},
		{"server error", newFakeFetcher().html("https://fjordfrisor.no", 503, ""), model.TLSCheck{Reachable: true, Valid: false}},
		{"bad certificate", newFakeFetcher().fail("https://fjordfrisor.no",
			eris.New(`Get "https://fjordfrisor.no": tls: failed to verify certificate: x509: certificate has expired or is not yet valid`)),
			model.TLSCheck{Reachable: true, Valid: false}},
		{"unreachable", newFakeFetcher().fail("https://fjordfrisor.no", errors.New("dial tcp: lookup fjordfrisor.no: no such host")),
			model.TLSCheck{Reachable: false, Valid: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewDomainProbe(tt.f, 0, WithWhois(staticWhois(sampleWhois, nil)), WithResolver(fakeResolver{}))
			health, ok := p.Probe(context.Background(), "fjordfrisor.no").Get()
			require.True(t, ok)
			got, ok := health.TLS.Get()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainProbe_EmptyMXAnswer(t *testing.T) {
	t.Parallel()
	p := NewDomainProbe(newFakeFetcher().html("https://fjordfrisor.no", 200, ""), 0,
		WithWhois(staticWhois(sampleWhois, nil)), WithResolver(fakeResolver{}))
	health, _ := p.Probe(context.Background(), "fjordfrisor.no").Get()
	assert.Equal(t, model.NoMXRecords, health.MX.Reason())
}

func TestDomainProbe_TLSUsesRegisteredHost(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().html("https://www.fjordfrisor.no", 200, "")
	var whoisFor, mxFor string
	resolver := mxFunc(func(_ context.Context, name string) ([]*net.MX, error) {
		mxFor = name
		return []*net.MX{{Host: "mx.fjordfrisor.no."}}, nil
	})
	p := NewDomainProbe(f, 0,
		WithWhois(func(_ context.Context, domain string) (string, error) {
			whoisFor = domain
			return sampleWhois, nil
		}),
		WithResolver(resolver),
	)

	health, ok := p.Probe(context.Background(), "www.fjordfrisor.no").Get()
	require.True(t, ok)
	assert.Equal(t, "fjordfrisor.no", health.Domain)
	assert.Equal(t, []string{"https://www.fjordfrisor.no"}, f.requested())

	tlsCheck, ok := health.TLS.Get()
	require.True(t, ok)
	assert.Equal(t, model.TLSCheck{Reachable: true, Valid: true}, tlsCheck)
	assert.Equal(t, "fjordfrisor.no", whoisFor)
	assert.Equal(t, "fjordfrisor.no", mxFor)
}

type mxFunc func(ctx context.Context, name string) ([]*net.MX, error)

func (f mxFunc) LookupMX(ctx context.Context, name string) ([]*net.MX, error) { return f(ctx, name) }
