// Package pipeline enriches one company at a time: a registry lookup, then a
// bounded fan-out of probes whose sections merge into a single record.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/heuristics"
	"github.com/sells-group/salgsmotor/internal/metrics"
	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/probe"
	"github.com/sells-group/salgsmotor/internal/resilience"
	"github.com/sells-group/salgsmotor/pkg/brreg"
)

// ErrRegistryUnavailable wraps every registry failure that ends an
// enrichment. The cause stays reachable through errors.Is.
var ErrRegistryUnavailable = eris.New("pipeline: registry unavailable")

// DefaultProbeConcurrency bounds the per-company probe fan-out.
const DefaultProbeConcurrency = 4

// Cache is the record cache the pipeline reads through.
type Cache interface {
	Load(ctx context.Context, orgnr model.OrgNumber) (*model.Record, bool)
	Save(ctx context.Context, orgnr model.OrgNumber, rec *model.Record)
}

// Deps holds the pipeline collaborators. Nil probes leave their sections
// absent; a nil Cache disables caching.
type Deps struct {
	Registry brreg.Client
	Cache    Cache
	Probes   Probes
	Breakers *resilience.ServiceBreakers
	Gate     *fetcher.Gate
	Engine   *heuristics.Engine
}

// Options tunes the pipeline.
type Options struct {
	ProbeConcurrency int
}

// Pipeline is safe for concurrent use across organizations.
type Pipeline struct {
	registry brreg.Client
	cache    Cache
	probes   Probes
	breakers *resilience.ServiceBreakers
	gate     *fetcher.Gate
	engine   *heuristics.Engine
	limit    int
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	p := &Pipeline{
		registry: deps.Registry,
		cache:    deps.Cache,
		probes:   deps.Probes,
		breakers: deps.Breakers,
		gate:     deps.Gate,
		engine:   deps.Engine,
		limit:    opts.ProbeConcurrency,
	}
	if p.breakers == nil {
		p.breakers = resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig())
	}
	if p.gate == nil {
		p.gate = fetcher.NewGate()
	}
	if p.engine == nil {
		p.engine = heuristics.New(heuristics.DefaultConfig())
	}
	if p.limit <= 0 {
		p.limit = DefaultProbeConcurrency
	}
	return p
}

// Enrich returns the enriched record for orgnr. Unless force is set, a cached
// record is returned as stored without any network call.
func (p *Pipeline) Enrich(ctx context.Context, orgnr string, force bool) (*model.Record, error) {
	num, err := model.ParseOrgNumber(orgnr)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("orgnr", num.String()))

	if !force && p.cache != nil {
		if rec, ok := p.cache.Load(ctx, num); ok {
			log.Debug("pipeline: served from cache")
			metrics.Enrichments.WithLabelValues(metrics.OutcomeServed).Inc()
			return rec, nil
		}
	}

	start := time.Now()
	company, err := p.registry.FetchByOrgNumber(ctx, num.String())
	if err != nil {
		metrics.Enrichments.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.Warn("pipeline: registry lookup failed", zap.Error(err))
		return nil, registryError(err)
	}

	rec := p.collect(ctx, num, *company)

	// Records with breaker-skipped sections are not cached; the next lookup
	// probes again.
	if skipped := circuitOpenSections(rec); len(skipped) > 0 {
		log.Info("pipeline: not caching record with skipped probes", zap.Strings("probes", skipped))
	} else if p.cache != nil {
		p.cache.Save(ctx, num, rec)
	}
	metrics.Enrichments.WithLabelValues(metrics.OutcomeFetched).Inc()
	log.Info("pipeline: enrichment complete",
		zap.String("company", company.Name),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return rec, nil
}

// Recommend evaluates the heuristics rules against rec.
func (p *Pipeline) Recommend(rec *model.Record, now time.Time) []model.Recommendation {
	return p.engine.Evaluate(rec, now)
}

func registryError(err error) error {
	return &registryErr{cause: err}
}

// registryErr matches both ErrRegistryUnavailable and the underlying cause.
type registryErr struct {
	cause error
}

func (e *registryErr) Error() string { return ErrRegistryUnavailable.Error() + ": " + e.cause.Error() }

func (e *registryErr) Unwrap() []error { return []error{ErrRegistryUnavailable, e.cause} }

// collect fans the probes out and merges their sections once all are done.
// Each goroutine writes only its own variable. Probes backed by a shared
// service run inside that service's breaker; the domain and tech probes only
// touch the company's own site and run unguarded.
func (p *Pipeline) collect(ctx context.Context, orgnr model.OrgNumber, company model.Company) *model.Record {
	var (
		financial model.Section[model.Financial]
		listings  model.Section[map[string]string]
		social    model.Section[map[string]string]
		news      model.Section[model.News]
		domain    model.Section[model.DomainHealth]
		tech      probe.TechResult
		ai        model.Section[model.AIAnalysis]
	)

	site := fetcher.Normalize(company.Website)
	siteURL, gateErr := p.gate.Check(site)
	if site != "" && gateErr != nil {
		zap.L().Info("pipeline: website rejected, skipping website probes",
			zap.String("orgnr", orgnr.String()),
			zap.String("website", site),
			zap.Error(gateErr),
		)
	}
	websiteOK := site != "" && gateErr == nil

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	if p.probes.Financial != nil {
		g.Go(func() error {
			financial = guardSection(gctx, p.breakers, probeFinancial, func(ctx context.Context) model.Section[model.Financial] {
				return p.probes.Financial.Probe(ctx, orgnr)
			})
			return nil
		})
	}
	if p.probes.Listings != nil {
		g.Go(func() error {
			listings = guardSection(gctx, p.breakers, probeListings, func(ctx context.Context) model.Section[map[string]string] {
				return p.probes.Listings.Probe(ctx, orgnr)
			})
			return nil
		})
	}
	if p.probes.Social != nil {
		g.Go(func() error {
			social = guardSection(gctx, p.breakers, probeSocial, func(ctx context.Context) model.Section[map[string]string] {
				return p.probes.Social.Probe(ctx, company.Name)
			})
			return nil
		})
	}
	if p.probes.News != nil {
		g.Go(func() error {
			news = guardSection(gctx, p.breakers, probeNews, func(ctx context.Context) model.Section[model.News] {
				return p.probes.News.Probe(ctx, company.Name)
			})
			return nil
		})
	}
	if websiteOK && p.probes.Domain != nil {
		host := siteURL.Hostname()
		g.Go(func() error {
			domain = p.probes.Domain.Probe(gctx, host)
			return nil
		})
	}
	if websiteOK && p.probes.Tech != nil {
		g.Go(func() error {
			tech = p.probes.Tech.Probe(gctx, site)
			return nil
		})
	}
	if websiteOK && p.probes.AI != nil {
		g.Go(func() error {
			ai = guardSection(gctx, p.breakers, probeAI, func(ctx context.Context) model.Section[model.AIAnalysis] {
				return p.probes.AI.Probe(ctx, site)
			})
			return nil
		})
	}

	// Probes report failure through their sections; the group never errors.
	_ = g.Wait()

	if site != "" {
		company.Website = site
	}
	rec := &model.Record{
		OrgNumber:      orgnr,
		Registry:       model.Present(company),
		Financial:      financial,
		DomainHealth:   domain,
		TechStack:      tech.Stack,
		AIAnalysis:     ai,
		SocialPresence: social,
		Listings:       listings,
		News:           news,
		Accounting:     tech.Accounting,
	}
	if financial.Known() {
		rec.FinancialHealth = model.Present(heuristics.AssessFinancialHealth(financial))
	}

	recordProbeMetrics(rec)
	return rec
}

// Probe and breaker names.
const (
	probeFinancial = "financial"
	probeListings  = "listings"
	probeSocial    = "social"
	probeNews      = "news"
	probeDomain    = "domain"
	probeTech      = "tech"
	probeAI        = "ai"
)

func sectionStates(rec *model.Record) map[string]model.SectionState {
	return map[string]model.SectionState{
		probeFinancial: rec.Financial.State(),
		probeListings:  rec.Listings.State(),
		probeSocial:    rec.SocialPresence.State(),
		probeNews:      rec.News.State(),
		probeDomain:    rec.DomainHealth.State(),
		probeTech:      rec.TechStack.State(),
		probeAI:        rec.AIAnalysis.State(),
	}
}

func recordProbeMetrics(rec *model.Record) {
	for name, state := range sectionStates(rec) {
		metrics.ProbeResults.WithLabelValues(name, state.String()).Inc()
	}
}

// circuitOpenSections names the guarded sections an open breaker skipped.
func circuitOpenSections(rec *model.Record) []string {
	var names []string
	for name, reason := range map[string]string{
		probeFinancial: rec.Financial.Reason(),
		probeListings:  rec.Listings.Reason(),
		probeSocial:    rec.SocialPresence.Reason(),
		probeNews:      rec.News.Reason(),
		probeAI:        rec.AIAnalysis.Reason(),
	} {
		if reason == probe.ReasonCircuitOpen {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

var errProbeFailed = eris.New("pipeline: probe failed")

// guardSection runs fn inside the named breaker. Only source failures count
// against it, so one company's missing page never affects the next. An open
// breaker yields a failed section without calling fn.
func guardSection[T any](ctx context.Context, breakers *resilience.ServiceBreakers, name string, fn func(context.Context) model.Section[T]) model.Section[T] {
	sec, err := resilience.ExecuteVal(ctx, breakers.Get(name), func(ctx context.Context) (model.Section[T], error) {
		s := fn(ctx)
		if s.State() == model.StateFailed && probe.SourceFailure(s.Reason()) {
			return s, errProbeFailed
		}
		return s, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return model.Failed[T](probe.ReasonCircuitOpen)
	}
	return sec
}
