package heuristics

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Config holds rule thresholds and keyword lists.
type Config struct {
	StartupMaxYears      float64
	ModernizeMinYears    float64
	ConsumerEmailDomains []string
	ServiceKeywords      []string
	CompetitiveKeywords  []string
}

// DefaultConfig returns the thresholds and keywords the sales team uses.
func DefaultConfig() Config {
	return Config{
		StartupMaxYears:      2,
		ModernizeMinYears:    10,
		ConsumerEmailDomains: []string{"gmail.com", "hotmail.com", "online.no", "yahoo.com", "live.no"},
		ServiceKeywords:      []string{"frisør", "tannlege", "klinikk", "behandling", "terapi", "helse"},
		CompetitiveKeywords: []string{
			"butikkhandel", "restaurant", "eiendomsmegling", "regnskap",
			"programvare", "konsulent", "håndverker", "rådgivning",
		},
	}
}

// Validate checks thresholds and keyword lists.
func (c Config) Validate() error {
	var problems []string
	if c.StartupMaxYears < 0 {
		problems = append(problems, "startup_max_years must be >= 0")
	}
	if c.ModernizeMinYears < 0 {
		problems = append(problems, "modernize_min_years must be >= 0")
	}
	lists := []struct {
		name  string
		words []string
	}{
		{"consumer_email_domains", c.ConsumerEmailDomains},
		{"service_keywords", c.ServiceKeywords},
		{"competitive_keywords", c.CompetitiveKeywords},
	}
	for _, l := range lists {
		for _, w := range l.words {
			if strings.TrimSpace(w) == "" {
				problems = append(problems, l.name+" contains an empty keyword")
				break
			}
		}
	}
	if len(problems) > 0 {
		return eris.Errorf("heuristics: invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
