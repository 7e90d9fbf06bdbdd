package probe

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/pkg/jina"
)

// Social presence statuses. Only values with StatusFoundPrefix are evidence
// of a profile.
const (
	StatusFoundPrefix  = "found: "
	StatusNotFound     = "not found"
	StatusSearchFailed = "search failed: "
	StatusUnverified   = "unverified: no search backend configured"
)

// SocialPlatforms are the sites checked for a company profile.
var SocialPlatforms = []string{"linkedin.com", "facebook.com", "instagram.com"}

// SocialProbe looks for company profiles on the social platforms.
type SocialProbe struct {
	search jina.Client
}

// NewSocialProbe creates a SocialProbe. A nil client marks every platform
// unverified.
func NewSocialProbe(search jina.Client) *SocialProbe {
	return &SocialProbe{search: search}
}

// Probe returns one status per platform.
func (p *SocialProbe) Probe(ctx context.Context, companyName string) model.Section[map[string]string] {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return model.Failed[map[string]string](ReasonNoData)
	}
	presence := make(map[string]string, len(SocialPlatforms))
	for _, platform := range SocialPlatforms {
		if p.search == nil {
			presence[platform] = StatusUnverified
			continue
		}
		presence[platform] = p.lookup(ctx, name, platform)
	}
	return model.Present(presence)
}

func (p *SocialProbe) lookup(ctx context.Context, name, platform string) string {
	resp, err := p.search.Search(ctx, `"`+name+`"`, jina.WithSiteFilter(platform))
	if err != nil {
		zap.L().Debug("social search failed", zap.String("platform", platform), zap.Error(err))
		return StatusSearchFailed + err.Error()
	}
	for _, r := range resp.Data {
		if onPlatform(r.URL, platform) {
			return StatusFoundPrefix + r.URL
		}
	}
	return StatusNotFound
}

// onPlatform reports whether rawURL is hosted on platform or a subdomain.
func onPlatform(rawURL, platform string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == platform || strings.HasSuffix(host, "."+platform)
}

// HasFoundProfile reports whether any platform status is a found profile.
func HasFoundProfile(presence map[string]string) bool {
	for _, status := range presence {
		if strings.HasPrefix(status, StatusFoundPrefix) {
			return true
		}
	}
	return false
}
