package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSection_States(t *testing.T) {
	var absent Section[string]
	assert.Equal(t, StateAbsent, absent.State())
	assert.False(t, absent.Known())
	assert.True(t, absent.IsZero())

	present := Present("x")
	v, ok := present.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	failed := Failedf[string]("timeout after %ds", 10)
	_, ok = failed.Get()
	assert.False(t, ok)
	assert.Equal(t, "timeout after 10s", failed.Reason())
	assert.Equal(t, "failed", failed.State().String())
}

func TestSection_JSONShapes(t *testing.T) {
	type wrapper struct {
		A Section[map[string]string] `json:"a,omitzero"`
		B Section[map[string]string] `json:"b,omitzero"`
		C Section[map[string]string] `json:"c,omitzero"`
	}
	w := wrapper{
		A: Present(map[string]string{"WordPress": "6.4"}),
		B: Failed[map[string]string]("capability unavailable"),
	}
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"WordPress":"6.4"},"b":{"error":"capability unavailable"}}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, w, back)
	assert.Equal(t, StateAbsent, back.C.State())
}

func TestSection_ObjectWithErrorAndOtherKeysIsPresent(t *testing.T) {
	var s Section[map[string]string]
	require.NoError(t, json.Unmarshal([]byte(`{"error":"x","other":"y"}`), &s))
	assert.True(t, s.Known())
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	employees := 0
	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &Record{
		OrgNumber: "923609016",
		Registry: Present(Company{
			OrgNumber:   "923609016",
			Name:        "Fjord Frisør AS",
			Established: "2019-05-02",
			Employees:   &employees,
			Industry:    &Code{Code: "96.021", Description: "Frisering"},
			Website:     "fjordfrisor.no",
		}),
		Financial: Present(Financial{
			URL:        "https://www.proff.no/company/923609016",
			KeyFigures: map[string]string{"Sum driftsinntekter": "500"},
		}),
		FinancialHealth: Present(FinancialHealth{Flags: []Flag{{Name: FlagRevenueConcern, Detail: "Low revenue (0.5M NOK)."}}}),
		DomainHealth: Present(DomainHealth{
			Domain: "fjordfrisor.no",
			Whois:  Failed[Whois]("whois: timeout"),
			TLS:    Present(TLSCheck{Reachable: true, Valid: true}),
			MX:     Failed[[]string](NoMXRecords),
		}),
		TechStack:      Failed[map[string]string]("capability unavailable"),
		SocialPresence: Present(map[string]string{"linkedin.com": "not found"}),
		News:           Present(News{Items: []NewsItem{}, CheckedAt: checked}),
	}
	stamped := rec.Stamped(checked)
	assert.Nil(t, rec.Timestamp, "Stamped must not mutate the receiver")

	data, err := json.Marshal(stamped)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_timestamp":"2026-03-01T12:00:00Z"`)
	assert.NotContains(t, string(data), `"ai_analysis"`)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *stamped, back)
	assert.True(t, back.Cached())
	assert.Equal(t, "Fjord Frisør AS", back.CompanyName())
}

func TestCompany_EstablishedAt(t *testing.T) {
	c := Company{Established: "2020-01-15"}
	got, ok := c.EstablishedAt()
	require.True(t, ok)
	assert.Equal(t, 2020, got.Year())

	_, ok = Company{Established: "15.01.2020"}.EstablishedAt()
	assert.False(t, ok)
	_, ok = Company{}.EstablishedAt()
	assert.False(t, ok)
}
