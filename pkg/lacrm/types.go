package lacrm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes JSON strings, numbers and booleans into a string. LACRM
// returns IDs and flags as either, depending on the endpoint.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case bytes.Equal(data, []byte("true")):
		*f = "1"
	case bytes.Equal(data, []byte("false")):
		*f = "0"
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// Contact is a person or company record returned by SearchContacts.
type Contact struct {
	ContactID    FlexString         `json:"ContactId"`
	IsCompany    FlexString         `json:"IsCompany"`
	CompanyName  string             `json:"CompanyName"`
	FirstName    string             `json:"FirstName"`
	LastName     string             `json:"LastName"`
	CustomFields []CustomFieldValue `json:"CustomFields"`
}

// IsCompanyRecord reports IsCompany == "1".
func (c Contact) IsCompanyRecord() bool { return c.IsCompany == "1" }

// FieldValue returns the trimmed value of the custom field with the given ID.
func (c Contact) FieldValue(fieldID string) string {
	for _, f := range c.CustomFields {
		if f.FieldID.String() == fieldID {
			return strings.TrimSpace(f.Value.String())
		}
	}
	return ""
}

// CustomFieldValue is one custom field value on a contact.
type CustomFieldValue struct {
	FieldID FlexString `json:"FieldId"`
	Value   FlexString `json:"Value"`
}

// CustomField describes a custom field definition.
type CustomField struct {
	CustomFieldID FlexString `json:"CustomFieldId"`
	Name          string     `json:"Name"`
	Type          string     `json:"Type"`
}

// CustomFields groups field definitions by the record type they apply to.
type CustomFields struct {
	Contact  []CustomField `json:"Contact"`
	Company  []CustomField `json:"Company"`
	Pipeline []CustomField `json:"Pipeline"`
}

// Total counts every field definition.
func (c *CustomFields) Total() int { return len(c.Contact) + len(c.Company) + len(c.Pipeline) }

// Pipeline is a sales pipeline.
type Pipeline struct {
	PipelineID FlexString `json:"PipelineId"`
	Name       string     `json:"Name"`
}

// PipelineItem is a new item for CreatePipelineItem. CustomFields is keyed
// by custom field ID.
type PipelineItem struct {
	PipelineID   string            `json:"PipelineId"`
	ContactID    string            `json:"ContactId,omitempty"`
	Name         string            `json:"Name"`
	StatusName   string            `json:"StatusName"`
	CustomFields map[string]string `json:"CustomFields,omitempty"`
}

// APIError is returned when LACRM answers with Success=false.
type APIError struct {
	Function string
	Message  string
}

func (e *APIError) Error() string {
	return "lacrm: " + e.Function + ": " + e.Message
}

func apiMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if len(raw) == 0 {
		return "unknown error"
	}
	return strconv.Quote(string(raw))
}
