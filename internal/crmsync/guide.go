package crmsync

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/salgsmotor/pkg/lacrm"
)

// FieldsGuide prints every LACRM custom field with its ID so the IDs can be
// copied into lacrm.custom_fields and lacrm.pipeline_fields.
func FieldsGuide(ctx context.Context, crm lacrm.Client, w io.Writer) error {
	fields, err := crm.GetCustomFields(ctx)
	if err != nil {
		return eris.Wrap(err, "crmsync: fetch custom fields")
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "LACRM CUSTOM FIELDS GUIDE")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%d fields (%d company, %d contact, %d pipeline)\n",
		fields.Total(), len(fields.Company), len(fields.Contact), len(fields.Pipeline))

	for _, group := range []struct {
		title  string
		fields []lacrm.CustomField
	}{
		{"CONTACT CUSTOM FIELDS", fields.Contact},
		{"COMPANY CUSTOM FIELDS", fields.Company},
		{"PIPELINE CUSTOM FIELDS", fields.Pipeline},
	} {
		if len(group.fields) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n%s\n", group.title, strings.Repeat("-", 80))
		for _, f := range group.fields {
			fmt.Fprintf(w, "  %-30s | ID: %s | Type: %s\n", f.Name, f.CustomFieldID, f.Type)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Company card keys for lacrm.custom_fields:")
	fmt.Fprintln(w, "  "+strings.Join(CardKeys, ", "))
	fmt.Fprintln(w, "Pipeline item keys for lacrm.pipeline_fields:")
	fmt.Fprintln(w, "  company, orgnr, category_main, phone, email, comment")
	fmt.Fprintln(w, rule)
	return nil
}
