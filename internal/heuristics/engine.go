package heuristics

import (
	"time"

	"github.com/sells-group/salgsmotor/internal/model"
)

// Engine evaluates every rule against a record.
type Engine struct {
	cfg   Config
	rules []Rule
}

// New creates an Engine. Zero thresholds keep their defaults; nil keyword
// lists keep the default lists.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.StartupMaxYears == 0 {
		cfg.StartupMaxYears = def.StartupMaxYears
	}
	if cfg.ModernizeMinYears == 0 {
		cfg.ModernizeMinYears = def.ModernizeMinYears
	}
	if cfg.ConsumerEmailDomains == nil {
		cfg.ConsumerEmailDomains = def.ConsumerEmailDomains
	}
	if cfg.ServiceKeywords == nil {
		cfg.ServiceKeywords = def.ServiceKeywords
	}
	if cfg.CompetitiveKeywords == nil {
		cfg.CompetitiveKeywords = def.CompetitiveKeywords
	}
	return &Engine{cfg: cfg, rules: Rules()}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Evaluate runs all rules in order and returns the triggered
// recommendations. The result is never nil.
func (e *Engine) Evaluate(rec *model.Record, now time.Time) []model.Recommendation {
	env := RuleEnv{Now: now.UTC(), Config: e.cfg}
	out := make([]model.Recommendation, 0, len(e.rules))
	for _, rule := range e.rules {
		if r, ok := rule(rec, env); ok {
			out = append(out, r)
		}
	}
	return out
}

// Primary returns the first recommendation, which drives the card category.
func Primary(recs []model.Recommendation) (model.Recommendation, bool) {
	if len(recs) == 0 {
		return model.Recommendation{}, false
	}
	return recs[0], true
}
