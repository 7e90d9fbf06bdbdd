package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/config"
	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/heuristics"
	"github.com/sells-group/salgsmotor/internal/pipeline"
	"github.com/sells-group/salgsmotor/internal/probe"
	"github.com/sells-group/salgsmotor/internal/resilience"
	"github.com/sells-group/salgsmotor/internal/store"
	"github.com/sells-group/salgsmotor/pkg/anthropic"
	"github.com/sells-group/salgsmotor/pkg/brreg"
	"github.com/sells-group/salgsmotor/pkg/jina"
	"github.com/sells-group/salgsmotor/pkg/lacrm"
)

// pipelineEnv holds the clients and the pipeline shared by the enrich, sync
// and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Engine   *heuristics.Engine
	Registry brreg.Client
	Breakers *resilience.ServiceBreakers
	LLM      anthropic.Client // may be nil
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		if err := pe.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.String("tier", pe.Store.Name()), zap.Error(err))
		}
	}
}

// initPipeline validates cfg for mode, opens the cache tier and builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store, zap.L())
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	zap.L().Info("cache tier ready", zap.String("tier", st.Name()))

	gate := fetcher.NewGate()
	browser := fetcher.NewBrowser(
		fetcher.WithGate(gate),
		fetcher.WithUserAgent(cfg.Probes.UserAgent),
		fetcher.WithTimeout(config.Seconds(cfg.Probes.TimeoutSecs, 15*time.Second)),
	)
	proffBrowser := fetcher.NewBrowser(
		fetcher.WithGate(gate),
		fetcher.WithUserAgent(cfg.Probes.UserAgent),
		fetcher.WithTimeout(config.Seconds(cfg.Proff.TimeoutSecs, 15*time.Second)),
	)

	registry := brreg.NewClient(
		brreg.WithBaseURL(cfg.Brreg.BaseURL),
		brreg.WithRateLimit(cfg.Brreg.RateLimit),
		brreg.WithTimeout(config.Seconds(cfg.Brreg.TimeoutSecs, 10*time.Second)),
	)

	llm := newLLM()

	var search jina.Client
	if cfg.Jina.Key != "" {
		search = jina.NewClient(cfg.Jina.Key, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	} else {
		zap.L().Debug("SALGSMOTOR_JINA_KEY not set, social presence unverified and news disabled")
	}

	engine := heuristics.New(heuristics.Config{
		StartupMaxYears:   cfg.Heuristics.StartupMaxYears,
		ModernizeMinYears: cfg.Heuristics.ModernizeMinYears,
	})

	breakers := resilience.NewServiceBreakers(
		resilience.FromCircuitConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs),
	)

	probes := pipeline.Probes{
		Financial: probe.NewFinancialProbe(proffBrowser, cfg.Proff.BaseURL, probe.FinancialSelectors{
			Table:        cfg.Proff.TableSelector,
			Widget:       cfg.Proff.WidgetSelector,
			WidgetHeader: cfg.Proff.WidgetHeaderSelector,
			WidgetValue:  cfg.Proff.WidgetValueSelector,
		}),
		Listings: probe.NewListingsProbe(browser, cfg.Gulesider.BaseURL),
		Social:   probe.NewSocialProbe(search),
		News:     probe.NewNewsProbe(search),
		Domain:   probe.NewDomainProbe(browser, config.Seconds(cfg.Probes.WhoisTimeoutSecs, 10*time.Second)),
		Tech:     probe.NewTechProbe(browser),
		AI:       probe.NewAIProbe(browser, llm, cfg.Anthropic.Model),
	}

	p := pipeline.New(pipeline.Deps{
		Registry: registry,
		Cache:    store.NewCache(st),
		Probes:   probes,
		Breakers: breakers,
		Gate:     gate,
		Engine:   engine,
	}, pipeline.Options{ProbeConcurrency: cfg.Probes.Concurrency})

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Engine:   engine,
		Registry: registry,
		Breakers: breakers,
		LLM:      llm,
	}, nil
}

// newLLM returns nil when no Anthropic key is configured.
func newLLM() anthropic.Client {
	if cfg.Anthropic.Key == "" {
		zap.L().Debug("SALGSMOTOR_ANTHROPIC_KEY not set, AI analysis and generated comments disabled")
		return nil
	}
	return anthropic.NewClient(cfg.Anthropic.Key,
		anthropic.WithTimeout(config.Seconds(cfg.Anthropic.TimeoutSecs, 30*time.Second)),
	)
}

func newCRMClient() lacrm.Client {
	return lacrm.NewClient(cfg.LACRM.UserCode, cfg.LACRM.APIToken,
		lacrm.WithBaseURL(cfg.LACRM.BaseURL),
		lacrm.WithRateLimit(cfg.LACRM.RateLimit),
	)
}
