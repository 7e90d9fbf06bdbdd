// Package report renders enrichment results for the command line: JSON or
// YAML on a writer, and an xlsx summary sheet.
package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/salgsmotor/internal/heuristics"
	"github.com/sells-group/salgsmotor/internal/model"
)

// Output formats accepted by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Result is the outcome of enriching one organization.
type Result struct {
	OrgNumber       string                 `json:"orgnr"`
	Record          *model.Record          `json:"record,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Failed reports whether enrichment returned an error.
func (r Result) Failed() bool { return r.Error != "" }

// Summary is the one-line view of a result used by the xlsx sheet.
type Summary struct {
	OrgNumber       string
	Name            string
	HealthStatus    string
	Primary         string
	Recommendations []string
}

// Summarize flattens a result for the summary sheet.
func Summarize(r Result) Summary {
	s := Summary{OrgNumber: r.OrgNumber}
	if r.Record == nil {
		s.HealthStatus = r.Error
		return s
	}
	s.Name = r.Record.CompanyName()
	if h, ok := r.Record.FinancialHealth.Get(); ok {
		s.HealthStatus = h.Status
	} else if reason := r.Record.FinancialHealth.Reason(); reason != "" {
		s.HealthStatus = reason
	}

	if primary, ok := heuristics.Primary(r.Recommendations); ok {
		s.Primary = primary.Kind.Norwegian()
	}
	for _, rec := range r.Recommendations {
		s.Recommendations = append(s.Recommendations, rec.Kind.Norwegian())
	}
	return s
}

// Encode writes v as indented JSON or as YAML. YAML keeps the JSON field
// names and order.
func Encode(w io.Writer, v any, format string) error {
	doc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal json")
	}

	switch format {
	case FormatJSON, "":
		doc = append(doc, '\n')
		if _, err := w.Write(doc); err != nil {
			return eris.Wrap(err, "report: write json")
		}
		return nil
	case FormatYAML:
		return writeYAML(w, doc)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

func writeYAML(w io.Writer, doc []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(doc, &node); err != nil {
		return eris.Wrap(err, "report: convert to yaml")
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return eris.Wrap(err, "report: write yaml")
	}
	return eris.Wrap(enc.Close(), "report: flush yaml")
}

// blockStyle drops the flow and quoting styles the JSON parse leaves behind.
// Tags are kept, so strings that look like numbers stay quoted.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
