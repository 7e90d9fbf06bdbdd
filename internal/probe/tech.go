package probe

import (
	"bytes"
	"context"
	"strings"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/fetcher"
	"github.com/sells-group/salgsmotor/internal/model"
)

// VersionUnknown is the tech-stack value when a fingerprint carries no version.
const VersionUnknown = "detected"

// Fingerprinter is satisfied by *wappalyzer.Wappalyze.
type Fingerprinter interface {
	Fingerprint(headers map[string][]string, data []byte) map[string]struct{}
}

// TechResult carries the tech stack and the accounting signal from the same
// page fetch.
type TechResult struct {
	Stack      model.Section[map[string]string]
	Accounting model.Section[model.Accounting]
}

// TechProbe fingerprints the technologies behind a website.
type TechProbe struct {
	fetch   fetcher.Fetcher
	wap     Fingerprinter
	initErr error
}

// NewTechProbe loads the fingerprint database. A load failure is kept and
// reported on every probe instead of failing construction.
func NewTechProbe(f fetcher.Fetcher) *TechProbe {
	w, err := wappalyzer.New()
	if err != nil {
		zap.L().Warn("tech fingerprints unavailable", zap.Error(err))
		return &TechProbe{fetch: f, initErr: err}
	}
	return &TechProbe{fetch: f, wap: w}
}

// NewTechProbeWith uses the given fingerprinter. A nil fingerprinter marks
// the capability unavailable.
func NewTechProbeWith(f fetcher.Fetcher, fp Fingerprinter) *TechProbe {
	p := &TechProbe{fetch: f, wap: fp}
	if fp == nil {
		p.initErr = errFingerprinterMissing
	}
	return p
}

var errFingerprinterMissing = eris.New("no fingerprinter")

// Probe fetches the site once for both the stack and the accounting signal.
func (p *TechProbe) Probe(ctx context.Context, siteURL string) TechResult {
	if p.initErr != nil {
		reason := ReasonCapabilityUnavailable + ": " + p.initErr.Error()
		return TechResult{
			Stack:      model.Failed[map[string]string](reason),
			Accounting: model.Failed[model.Accounting](reason),
		}
	}

	page, err := p.fetch.Fetch(ctx, siteURL)
	if err != nil {
		reason := fetchReason(err)
		zap.L().Debug("tech probe fetch failed", zap.String("url", siteURL), zap.Error(err))
		return TechResult{
			Stack:      model.Failed[map[string]string](reason),
			Accounting: model.Failed[model.Accounting](reason),
		}
	}
	if !page.OK() {
		reason := statusReason(page.StatusCode)
		return TechResult{
			Stack:      model.Failed[map[string]string](reason),
			Accounting: model.Failed[model.Accounting](reason),
		}
	}

	stack := make(map[string]string)
	for name := range p.wap.Fingerprint(page.Header, page.Body) {
		tech, version, ok := strings.Cut(name, ":")
		if !ok || version == "" {
			version = VersionUnknown
		}
		stack[tech] = version
	}

	return TechResult{
		Stack:      model.Present(stack),
		Accounting: model.Present(detectFiken(stack, page.Body)),
	}
}

// detectFiken looks for the accounting vendor in fingerprints and links.
func detectFiken(stack map[string]string, body []byte) model.Accounting {
	if _, ok := stack["Fiken"]; ok {
		return model.Accounting{UsesFiken: true, Confidence: "high"}
	}
	if bytes.Contains(bytes.ToLower(body), []byte("fiken.no")) {
		return model.Accounting{UsesFiken: true, Confidence: "medium"}
	}
	return model.Accounting{UsesFiken: false, Confidence: "low"}
}
