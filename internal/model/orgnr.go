// Package model defines the enriched company record and the types shared by
// the registry client, probes, cache, heuristics and CRM sync.
package model

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidOrgNumber is returned for identifiers that are not nine digits or
// that carry injection-looking substrings.
var ErrInvalidOrgNumber = eris.New("invalid organization number")

// OrgNumber is a validated Norwegian organization number (organisasjonsnummer).
type OrgNumber string

var orgNumberRe = regexp.MustCompile(`^\d{9}$`)

// injectionPatterns are rejected regardless of the digit check so that the
// log line names the offending fragment.
var injectionPatterns = []string{"'", `"`, ";", "--", "/*", "*/", "xp_", "sp_"}

// ParseOrgNumber trims and validates s. No I/O happens here; every caller that
// talks to an external source goes through this first.
func ParseOrgNumber(s string) (OrgNumber, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range injectionPatterns {
		if strings.Contains(lower, p) {
			return "", eris.Wrapf(ErrInvalidOrgNumber, "orgnr contains %q", p)
		}
	}
	if !orgNumberRe.MatchString(s) {
		return "", eris.Wrapf(ErrInvalidOrgNumber, "orgnr %q must be exactly 9 digits", s)
	}
	return OrgNumber(s), nil
}

func (o OrgNumber) String() string { return string(o) }

// RegistryURL is the public brreg lookup page for the organization.
func (o OrgNumber) RegistryURL() string {
	return "https://virksomhet.brreg.no/nb/oppslag/enheter/" + string(o)
}
