package model

import (
	"github.com/rotisserie/eris"
)

// RecommendationKind is the canonical catalog of sales recommendations.
// Display strings live in the maps below, not in the rules.
type RecommendationKind int

const (
	RecStartup RecommendationKind = iota + 1
	RecWebDesign
	RecSecurity
	RecEmailBranding
	RecAutomation
	RecRestructuring
	RecAccountingIntegration
	RecBooking
	RecHosting
	RecSEO
	RecModernization
	RecFeedbackSystem
	RecVisibility
	RecCRMIntegration
	RecEmailMarketing
)

// AllRecommendationKinds lists the catalog in rule order.
func AllRecommendationKinds() []RecommendationKind {
	return []RecommendationKind{
		RecStartup, RecWebDesign, RecSecurity, RecEmailBranding, RecAutomation,
		RecRestructuring, RecAccountingIntegration, RecBooking, RecHosting, RecSEO,
		RecModernization, RecFeedbackSystem, RecVisibility, RecCRMIntegration,
		RecEmailMarketing,
	}
}

var kindIDs = map[RecommendationKind]string{
	RecStartup:               "Startup Onboarding Package",
	RecWebDesign:             "Web Design",
	RecSecurity:              "SSL/Security Issues",
	RecEmailBranding:         "Email Branding",
	RecAutomation:            "Automation First Entry",
	RecRestructuring:         "Business Restructuring",
	RecAccountingIntegration: "Fiken Integration Services",
	RecBooking:               "Booking System",
	RecHosting:               "Hosting Issues",
	RecSEO:                   "SEO + Reviews",
	RecModernization:         "Digital Modernization",
	RecFeedbackSystem:        "Customer Feedback System",
	RecVisibility:            "Visibility Boost",
	RecCRMIntegration:        "CRM Integration",
	RecEmailMarketing:        "Email Marketing",
}

// norwegianLabels are the service categories used for CRM pipeline items.
var norwegianLabels = map[RecommendationKind]string{
	RecStartup:               "Startup-pakke",
	RecWebDesign:             "Webdesign / Nettprofil",
	RecSecurity:              "Sikkerhetsoppgradering",
	RecEmailBranding:         "Profesjonell e-post / branding",
	RecAutomation:            "Automatisering / første løsning",
	RecRestructuring:         "Omprofilering / nye markeder",
	RecAccountingIntegration: "Regnskapsintegrasjon / Fiken",
	RecBooking:               "Bestilling / kalender / tilstedeværelse",
	RecHosting:               "Hosting / vedlikehold",
	RecSEO:                   "SEO + reviews + nettpakke",
	RecModernization:         "Modernisering",
	RecFeedbackSystem:        "Kundetilbakemeldingssystem",
	RecVisibility:            "Synlighetspakke (AI, SEO, bilder)",
	RecCRMIntegration:        "Skreddersydd CRM / integrasjon",
	RecEmailMarketing:        "E-postmarkedsføring / nyhetsbrev",
}

// cardCategories are the simplified values of the company-card dropdown.
var cardCategories = map[RecommendationKind]string{
	RecStartup:               "Startup-pakke",
	RecWebDesign:             "Webdesign / Nettprofil",
	RecSecurity:              "Sikkerhetsoppgradering",
	RecEmailBranding:         "Profesjonell e-post",
	RecAutomation:            "Automatisering / første løsning",
	RecRestructuring:         "Omprofilering",
	RecAccountingIntegration: "Regnskapsintegrasjon / Fiken",
	RecBooking:               "Bestilling / kalender / tilstedeværelse",
	RecHosting:               "Hosting / vedlikehold",
	RecSEO:                   "SEO / Reviews",
	RecModernization:         "Modernisering",
	RecFeedbackSystem:        "Kundetilbakemeldingssystem",
	RecVisibility:            "Synlighetspakke (AI, SEO, bilder)",
	RecCRMIntegration:        "Skreddersydd CRM / integrasjon",
	RecEmailMarketing:        "E-postmarkedsføring / nyhetsbrev",
}

// CardCategoryOther is used when a kind has no card category.
const CardCategoryOther = "Annet"

// String returns the stable English identifier.
func (k RecommendationKind) String() string {
	if s, ok := kindIDs[k]; ok {
		return s
	}
	return "Unknown"
}

// Norwegian returns the CRM service label.
func (k RecommendationKind) Norwegian() string {
	if s, ok := norwegianLabels[k]; ok {
		return s
	}
	return k.String()
}

// CardCategory returns the simplified company-card category.
func (k RecommendationKind) CardCategory() string {
	if s, ok := cardCategories[k]; ok {
		return s
	}
	return CardCategoryOther
}

// MarshalText encodes the English identifier.
func (k RecommendationKind) MarshalText() ([]byte, error) {
	if _, ok := kindIDs[k]; !ok {
		return nil, eris.Errorf("model: unknown recommendation kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts the English identifier.
func (k *RecommendationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRecommendationKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseRecommendationKind maps an English identifier back to its kind.
func ParseRecommendationKind(s string) (RecommendationKind, error) {
	for k, id := range kindIDs {
		if id == s {
			return k, nil
		}
	}
	return 0, eris.Errorf("model: unknown recommendation %q", s)
}

// Recommendation pairs a catalog kind with a human-readable justification.
type Recommendation struct {
	Kind          RecommendationKind `json:"kind"`
	Justification string             `json:"justification"`
}
