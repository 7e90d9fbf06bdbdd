package model

import (
	"strings"
	"time"
)

// Company holds the canonical registry fields from Enhetsregisteret.
type Company struct {
	OrgNumber   string   `json:"organisasjonsnummer"`
	Name        string   `json:"navn"`
	Established string   `json:"stiftelsesdato,omitempty"`
	Employees   *int     `json:"antallAnsatte,omitempty"`
	Industry    *Code    `json:"naeringskode1,omitempty"`
	OrgForm     *Code    `json:"organisasjonsform,omitempty"`
	Website     string   `json:"hjemmeside,omitempty"`
	Email       string   `json:"epostadresse,omitempty"`
	Phone       string   `json:"telefon,omitempty"`
	Address     *Address `json:"forretningsadresse,omitempty"`
}

// Code is a registry code/description pair (industry, organization form).
type Code struct {
	Code        string `json:"kode"`
	Description string `json:"beskrivelse"`
}

// Address is a registry business address.
type Address struct {
	Lines        []string `json:"adresse,omitempty"`
	PostalCode   string   `json:"postnummer,omitempty"`
	City         string   `json:"poststed,omitempty"`
	Municipality string   `json:"kommune,omitempty"`
	Country      string   `json:"land,omitempty"`
}

// EstablishedAt parses the registry establishment date.
func (c Company) EstablishedAt() (time.Time, bool) {
	if c.Established == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, c.Established)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IndustryDescription returns naeringskode1.beskrivelse or "".
func (c Company) IndustryDescription() string {
	if c.Industry == nil {
		return ""
	}
	return c.Industry.Description
}

// Financial is the scraped key-figure section. Values stay as cleaned text
// in thousands; numeric interpretation belongs to the financial health rule.
type Financial struct {
	URL         string            `json:"url"`
	KeyFigures  map[string]string `json:"key_figures,omitempty"`
	Description string            `json:"company_description,omitempty"`
	Contact     Contact           `json:"contact_info,omitzero"`
}

// Contact is contact info found on a scraped page.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Financial health flag names and verdict statuses.
const (
	FlagRevenueConcern       = "Revenue Concern"
	FlagProfitabilityConcern = "Profitability Concern"
	FlagDataQuality          = "Data Quality"

	StatusStable       = "Appears stable based on available data."
	StatusNoKeyFigures = "No key figures available."
)

// Flag is one named financial-health finding.
type Flag struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// FinancialHealth is the derived verdict. Flags keep insertion order.
type FinancialHealth struct {
	Status string `json:"status,omitempty"`
	Flags  []Flag `json:"flags,omitempty"`
}

// Has reports whether the named flag was raised.
func (h FinancialHealth) Has(name string) bool {
	for _, f := range h.Flags {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Detail returns the detail text for the named flag.
func (h FinancialHealth) Detail(name string) string {
	for _, f := range h.Flags {
		if f.Name == name {
			return f.Detail
		}
	}
	return ""
}

// Stable reports a clean verdict.
func (h FinancialHealth) Stable() bool { return h.Status == StatusStable }

// HasConcern reports a revenue or profitability concern.
func (h FinancialHealth) HasConcern() bool {
	return h.Has(FlagRevenueConcern) || h.Has(FlagProfitabilityConcern)
}

// NoMXRecords is the absence marker for the MX sub-check.
const NoMXRecords = "No MX records found."

// DomainHealth holds three independent sub-checks.
type DomainHealth struct {
	Domain string            `json:"domain"`
	Whois  Section[Whois]    `json:"whois,omitzero"`
	TLS    Section[TLSCheck] `json:"tls,omitzero"`
	MX     Section[[]string] `json:"mx_records,omitzero"`
}

// Whois is the parsed registrar/expiry pair.
type Whois struct {
	Registrar      string `json:"registrar,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// TLSCheck distinguishes "no answer" from "answered with a bad certificate".
type TLSCheck struct {
	Reachable bool `json:"reachable"`
	Valid     bool `json:"valid"`
}

// AIAnalysis is the model-produced website summary.
type AIAnalysis struct {
	Summary string `json:"summary"`
}

// NewsItem is one search hit about the company.
type NewsItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// News is the recent-news section.
type News struct {
	Items     []NewsItem `json:"recent_news"`
	CheckedAt time.Time  `json:"last_checked"`
}

// Accounting records accounting-software signals seen on the website.
type Accounting struct {
	UsesFiken  bool   `json:"uses_fiken"`
	Confidence string `json:"confidence"`
}

// Record is the enriched company record. A record with a nil Timestamp is
// fresh; one with a Timestamp was loaded from the cache verbatim.
type Record struct {
	OrgNumber       OrgNumber                  `json:"orgnr"`
	Registry        Section[Company]           `json:"registry,omitzero"`
	Financial       Section[Financial]         `json:"financial,omitzero"`
	FinancialHealth Section[FinancialHealth]   `json:"financial_health,omitzero"`
	DomainHealth    Section[DomainHealth]      `json:"domain_health,omitzero"`
	TechStack       Section[map[string]string] `json:"tech_stack,omitzero"`
	AIAnalysis      Section[AIAnalysis]        `json:"ai_analysis,omitzero"`
	SocialPresence  Section[map[string]string] `json:"social_presence,omitzero"`
	Listings        Section[map[string]string] `json:"listings,omitzero"`
	News            Section[News]              `json:"news,omitzero"`
	Accounting      Section[Accounting]        `json:"accounting,omitzero"`
	Timestamp       *time.Time                 `json:"_timestamp,omitempty"`
}

// Cached reports whether the record came out of the cache.
func (r *Record) Cached() bool { return r.Timestamp != nil }

// Stamped returns a shallow copy carrying the given timestamp in UTC.
func (r *Record) Stamped(t time.Time) *Record {
	cp := *r
	ts := t.UTC()
	cp.Timestamp = &ts
	return &cp
}

// CompanyName returns the registry name, or "" when the registry is unknown.
func (r *Record) CompanyName() string {
	c, ok := r.Registry.Get()
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.Name)
}
