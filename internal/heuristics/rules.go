package heuristics

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/probe"
)

// RuleEnv is the evaluation context shared by all rules.
type RuleEnv struct {
	Now    time.Time
	Config Config
}

// Rule evaluates one recommendation against a record.
type Rule func(rec *model.Record, env RuleEnv) (model.Recommendation, bool)

// Justifications as written for the CRM team.
const (
	justWebDesign      = "Ingen nettside, eller utdatert/ufullstendig"
	justSecurity       = "HTTP uten HTTPS, ugyldig SSL, exposed CMS"
	justEmailBranding  = "Gmail, Hotmail, Online.no, Yahoo etc. brukt som primær e-post"
	justAutomation     = "Ingen ansatte, nyregistrert, eller enkel enmannsbedrift uten digitale systemer"
	justRestructuring  = "Regnskapstall viser fall eller lav vekst siste 2 år"
	justAccounting     = "Mismatching mellom kontaktdata og regnskapsdata, eller manglende fakturastrøm"
	justBooking        = "Tjenestebasert bedrift (frisør, tannlege, klinikk) uten online booking"
	justHosting        = "Nettside treg, nede, eller med tekniske feil (cloud-problemer)"
	justSEO            = "Bransje = konkurranseutsatt (butikk, restaurant, rådgivning) og dårlig synlighet"
	justModernization  = "Eldre firma (>%g år) med dårlig nettside, generisk e-post, eller manglende digitale løsninger"
	justFeedback       = "Ingen reviews på Proff.no, ingen referanser eller rating"
	justVisibility     = "Mangler Google Business, LinkedIn, eller har svak digital synlighet"
	justCRMIntegration = "Når CRM-mangler blir åpenbare – kontaktkaos, dobbeltdrift, manuell oppfølging"
	justEmailMarketing = "Ingen form for kundedialog, eller manglende samtykke / strategi"
	justStartup        = "Selskap etablert < %g år (%.1f år gammelt), ofte uten CRM, branding eller struktur."
)

var lower = cases.Lower(language.Norwegian)

func recommend(kind model.RecommendationKind, justification string) (model.Recommendation, bool) {
	return model.Recommendation{Kind: kind, Justification: justification}, true
}

var none model.Recommendation

// ageYears reports the company age in years of 365.25 days.
func ageYears(r *model.Record, now time.Time) (float64, bool) {
	c, ok := r.Registry.Get()
	if !ok {
		return 0, false
	}
	est, ok := c.EstablishedAt()
	if !ok {
		return 0, false
	}
	days := int(now.Sub(est).Hours() / 24)
	return float64(days) / 365.25, true
}

func website(r *model.Record) string {
	c, ok := r.Registry.Get()
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.Website)
}

// industry returns the lowercased industry description.
func industry(r *model.Record) string {
	c, ok := r.Registry.Get()
	if !ok {
		return ""
	}
	return lower.String(c.IndustryDescription())
}

func tlsCheck(r *model.Record) (model.TLSCheck, bool) {
	dh, ok := r.DomainHealth.Get()
	if !ok {
		return model.TLSCheck{}, false
	}
	return dh.TLS.Get()
}

// tlsInvalid is a reachable site with a bad certificate or error status.
func tlsInvalid(r *model.Record) bool {
	t, ok := tlsCheck(r)
	return ok && t.Reachable && !t.Valid
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, lower.String(k)) {
			return true
		}
	}
	return false
}

// StartupRule flags companies younger than the startup threshold.
func StartupRule(r *model.Record, env RuleEnv) (model.Recommendation, bool) {
	age, ok := ageYears(r, env.Now)
	if !ok || age >= env.Config.StartupMaxYears {
		return none, false
	}
	return recommend(model.RecStartup, fmt.Sprintf(justStartup, env.Config.StartupMaxYears, age))
}

// WebDesignRule flags companies without a registered website.
func WebDesignRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	if website(r) != "" {
		return none, false
	}
	return recommend(model.RecWebDesign, justWebDesign)
}

// SecurityRule flags a website that answers with an invalid certificate.
func SecurityRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	if website(r) == "" || !tlsInvalid(r) {
		return none, false
	}
	return recommend(model.RecSecurity, justSecurity)
}

// EmailBrandingRule flags a website hosted on a consumer mail domain.
func EmailBrandingRule(r *model.Record, env RuleEnv) (model.Recommendation, bool) {
	site := website(r)
	if site == "" {
		return none, false
	}
	host := strings.TrimPrefix(strings.TrimPrefix(site, "https://"), "http://")
	host, _, _ = strings.Cut(host, "/")
	if !containsAny(lower.String(host), env.Config.ConsumerEmailDomains) {
		return none, false
	}
	return recommend(model.RecEmailBranding, justEmailBranding)
}

// AutomationRule flags companies with zero registered employees.
func AutomationRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	c, ok := r.Registry.Get()
	if !ok || c.Employees == nil || *c.Employees != 0 {
		return none, false
	}
	return recommend(model.RecAutomation, justAutomation)
}

// RestructuringRule flags revenue or profitability concerns.
func RestructuringRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	h, ok := r.FinancialHealth.Get()
	if !ok || !h.HasConcern() {
		return none, false
	}
	return recommend(model.RecRestructuring, justRestructuring)
}

// AccountingIntegrationRule flags sites that link to Fiken.
func AccountingIntegrationRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	a, ok := r.Accounting.Get()
	if !ok || !a.UsesFiken {
		return none, false
	}
	return recommend(model.RecAccountingIntegration, justAccounting)
}

// BookingRule flags service industries.
func BookingRule(r *model.Record, env RuleEnv) (model.Recommendation, bool) {
	if !containsAny(industry(r), env.Config.ServiceKeywords) {
		return none, false
	}
	return recommend(model.RecBooking, justBooking)
}

// HostingRule flags a failed tech probe or an unreachable site. A missing
// fingerprint database or a skipped probe says nothing about the site.
func HostingRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	reason := r.TechStack.Reason()
	techFailed := r.TechStack.State() == model.StateFailed &&
		reason != probe.ReasonCircuitOpen &&
		!strings.HasPrefix(reason, probe.ReasonCapabilityUnavailable)
	t, ok := tlsCheck(r)
	unreachable := ok && !t.Reachable
	if !techFailed && !unreachable {
		return none, false
	}
	return recommend(model.RecHosting, justHosting)
}

// SEORule flags competitive industries.
func SEORule(r *model.Record, env RuleEnv) (model.Recommendation, bool) {
	if !containsAny(industry(r), env.Config.CompetitiveKeywords) {
		return none, false
	}
	return recommend(model.RecSEO, justSEO)
}

// ModernizationRule flags older companies with a weak web presence.
func ModernizationRule(r *model.Record, env RuleEnv) (model.Recommendation, bool) {
	age, ok := ageYears(r, env.Now)
	if !ok || age <= env.Config.ModernizeMinYears {
		return none, false
	}
	if website(r) != "" && !tlsInvalid(r) {
		return none, false
	}
	return recommend(model.RecModernization, fmt.Sprintf(justModernization, env.Config.ModernizeMinYears))
}

// FeedbackSystemRule flags companies without known key figures.
func FeedbackSystemRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	f, ok := r.Financial.Get()
	if ok && len(f.KeyFigures) > 0 {
		return none, false
	}
	return recommend(model.RecFeedbackSystem, justFeedback)
}

// VisibilityRule flags companies with no found social profile. Unverified
// and unknown count as not found.
func VisibilityRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	presence, ok := r.SocialPresence.Get()
	if ok && probe.HasFoundProfile(presence) {
		return none, false
	}
	return recommend(model.RecVisibility, justVisibility)
}

// CRMIntegrationRule flags missing directory listings or financial data.
func CRMIntegrationRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	listings, ok := r.Listings.Get()
	if ok && len(listings) > 0 && r.Financial.Known() {
		return none, false
	}
	return recommend(model.RecCRMIntegration, justCRMIntegration)
}

// EmailMarketingRule flags companies without recent news.
func EmailMarketingRule(r *model.Record, _ RuleEnv) (model.Recommendation, bool) {
	news, ok := r.News.Get()
	if ok && len(news.Items) > 0 {
		return none, false
	}
	return recommend(model.RecEmailMarketing, justEmailMarketing)
}

// Rules returns every rule in evaluation order.
func Rules() []Rule {
	return []Rule{
		StartupRule,
		WebDesignRule,
		SecurityRule,
		EmailBrandingRule,
		AutomationRule,
		RestructuringRule,
		AccountingIntegrationRule,
		BookingRule,
		HostingRule,
		SEORule,
		ModernizationRule,
		FeedbackSystemRule,
		VisibilityRule,
		CRMIntegrationRule,
		EmailMarketingRule,
	}
}
