package pipeline

import (
	"context"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/probe"
)

// OrgProber probes by organization number.
type OrgProber[T any] interface {
	Probe(ctx context.Context, orgnr model.OrgNumber) model.Section[T]
}

// NameProber probes by company name.
type NameProber[T any] interface {
	Probe(ctx context.Context, companyName string) model.Section[T]
}

// SiteProber probes a normalized website URL or domain.
type SiteProber[T any] interface {
	Probe(ctx context.Context, target string) model.Section[T]
}

// TechProber fingerprints a website.
type TechProber interface {
	Probe(ctx context.Context, siteURL string) probe.TechResult
}

// Probes is the probe set. Domain receives the website host; Tech and AI receive
// the normalized URL.
type Probes struct {
	Financial OrgProber[model.Financial]
	Listings  OrgProber[map[string]string]
	Social    NameProber[map[string]string]
	News      NameProber[model.News]
	Domain    SiteProber[model.DomainHealth]
	Tech      TechProber
	AI        SiteProber[model.AIAnalysis]
}
