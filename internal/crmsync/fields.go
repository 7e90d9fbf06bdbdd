package crmsync

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/salgsmotor/internal/heuristics"
	"github.com/sells-group/salgsmotor/internal/model"
)

// Company card keys. Each maps to a LACRM custom field ID in
// lacrm.custom_fields.
const (
	FieldName        = "brreg_navn"
	FieldOrgNr       = "orgnr"
	FieldIndustry    = "bransje"
	FieldEmployees   = "antall_ansatte"
	FieldEstablished = "etablert"
	FieldWebsite     = "nettsted"
	FieldEmail       = "firma_epost"
	FieldRating      = "proff_rating"
	FieldPipeline    = "pipeline_anbefalt"
	FieldNotes       = "salgsmotor_notat"
	FieldUpdateLog   = "oppdateringslogg"
)

// CardKeys lists every company card key in display order.
var CardKeys = []string{
	FieldOrgNr, FieldName, FieldIndustry, FieldEmployees, FieldEstablished, FieldWebsite,
	FieldEmail, FieldRating, FieldNotes, FieldUpdateLog, FieldPipeline,
}

// Proff rating values.
const (
	RatingStable  = "Stabil"
	RatingRisk    = "Risiko"
	RatingUnknown = "Ukjent"
)

const maxNoteRecommendations = 3

// MapFields builds the company card payload keyed by custom field ID. Keys
// without a configured ID and empty values are left out.
func MapFields(rec *model.Record, recs []model.Recommendation, fieldIDs map[string]string, now time.Time) map[string]string {
	payload := make(map[string]string)
	add := func(key, value string) {
		id := strings.TrimSpace(fieldIDs[key])
		if id == "" || value == "" {
			return
		}
		payload[id] = value
	}

	if c, ok := rec.Registry.Get(); ok {
		add(FieldName, c.Name)
		add(FieldIndustry, c.IndustryDescription())
		if c.Employees != nil {
			add(FieldEmployees, strconv.Itoa(*c.Employees))
		}
		add(FieldEstablished, c.Established)
		add(FieldWebsite, c.Website)
	}
	if rec.OrgNumber != "" {
		add(FieldOrgNr, rec.OrgNumber.RegistryURL())
	}
	add(FieldEmail, companyEmail(rec))
	add(FieldRating, rating(rec))

	if primary, ok := heuristics.Primary(recs); ok {
		add(FieldPipeline, primary.Kind.CardCategory())
	}
	add(FieldNotes, notes(rec, recs))
	add(FieldUpdateLog, now.Format("2006-01-02 15:04")+": Automatisk oppdatering fra Salgsmotor")
	return payload
}

// companyEmail prefers the registry address over one scraped from proff.
func companyEmail(rec *model.Record) string {
	if c, ok := rec.Registry.Get(); ok && c.Email != "" {
		return c.Email
	}
	if f, ok := rec.Financial.Get(); ok {
		return f.Contact.Email
	}
	return ""
}

func companyPhone(rec *model.Record) string {
	if c, ok := rec.Registry.Get(); ok && c.Phone != "" {
		return c.Phone
	}
	if f, ok := rec.Financial.Get(); ok {
		return f.Contact.Phone
	}
	return ""
}

func rating(rec *model.Record) string {
	h, ok := rec.FinancialHealth.Get()
	switch {
	case ok && h.Stable():
		return RatingStable
	case ok && h.HasConcern():
		return RatingRisk
	default:
		return RatingUnknown
	}
}

func notes(rec *model.Record, recs []model.Recommendation) string {
	var lines []string
	if ai, ok := rec.AIAnalysis.Get(); ok && ai.Summary != "" {
		lines = append(lines, "AI Analyse: "+ai.Summary)
	}
	if len(recs) > 0 {
		lines = append(lines, "Anbefalinger:")
		for _, r := range recs[:min(len(recs), maxNoteRecommendations)] {
			lines = append(lines, "- "+r.Kind.Norwegian()+": "+r.Justification)
		}
	}
	return strings.Join(lines, "\n")
}
