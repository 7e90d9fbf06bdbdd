package lacrm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/salgsmotor/internal/resilience"
)

func fastRetry() Option {
	return WithRetryConfig(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond})
}

// formServer decodes each form POST and hands function + parameters to fn.
func formServer(t *testing.T, fn func(function string, params map[string]any) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "UC1", r.PostForm.Get("UserCode"))
		assert.Equal(t, "tok", r.PostForm.Get("APIToken"))
		var params map[string]any
		if raw := r.PostForm.Get("Parameters"); raw != "" {
			assert.NoError(t, json.Unmarshal([]byte(raw), &params))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fn(r.PostForm.Get("Function"), params))
	}))
}

func newTestClient(srv *httptest.Server) Client {
	return NewClient("UC1", "tok", WithBaseURL(srv.URL), WithRateLimit(0), fastRetry())
}

func TestSearchContacts(t *testing.T) {
	t.Parallel()
	srv := formServer(t, func(function string, params map[string]any) any {
		assert.Equal(t, "SearchContacts", function)
		assert.Equal(t, "", params["SearchText"])
		return map[string]any{"Success": true, "Result": []map[string]any{
			{"ContactId": "3001", "IsCompany": "1", "CompanyName": "Fjord Frisør AS",
				"CustomFields": []map[string]any{{"FieldId": "4012", "Value": "923609016"}}},
			{"ContactId": 3002, "IsCompany": 0, "FirstName": "Kari", "CompanyName": ""},
		}}
	})
	defer srv.Close()

	contacts, err := newTestClient(srv).SearchContacts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.True(t, contacts[0].IsCompanyRecord())
	assert.Equal(t, "923609016", contacts[0].FieldValue("4012"))
	assert.Equal(t, "", contacts[0].FieldValue("9999"))
	assert.Equal(t, "3002", contacts[1].ContactID.String())
	assert.False(t, contacts[1].IsCompanyRecord())
}

func TestGetCustomFields_TopLevelGroups(t *testing.T) {
	t.Parallel()
	srv := formServer(t, func(function string, _ map[string]any) any {
		assert.Equal(t, "GetCustomFields", function)
		return map[string]any{
			"Success":  true,
			"Contact":  []map[string]any{{"CustomFieldId": "11", "Name": "Rolle", "Type": "Text"}},
			"Company":  []map[string]any{{"CustomFieldId": 4012, "Name": "orgnr", "Type": "Text"}, {"CustomFieldId": "4013", "Name": "bransje", "Type": "Text"}},
			"Pipeline": []map[string]any{},
		}
	})
	defer srv.Close()

	fields, err := newTestClient(srv).GetCustomFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fields.Total())
	assert.Equal(t, "4012", fields.Company[0].CustomFieldID.String())
}

func TestEditContact_SpreadsFieldsIntoParameters(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := formServer(t, func(function string, params map[string]any) any {
		assert.Equal(t, "EditContact", function)
		got = params
		return map[string]any{"Success": true, "Result": nil}
	})
	defer srv.Close()

	err := newTestClient(srv).EditContact(context.Background(), "3001", map[string]string{"4012": "923609016", "4013": "Frisør"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ContactId": "3001", "4012": "923609016", "4013": "Frisør"}, got)
}

func TestPipelines(t *testing.T) {
	t.Parallel()
	srv := formServer(t, func(function string, params map[string]any) any {
		switch function {
		case "GetPipelines":
			return map[string]any{"Success": true, "Result": []map[string]any{{"PipelineId": "77", "Name": "Potensielle kunder"}}}
		case "CreatePipeline":
			assert.Equal(t, "Ny pipeline", params["Name"])
			assert.Len(t, params["StatusNames"], 2)
			return map[string]any{"Success": true, "Result": map[string]any{"PipelineId": 78}}
		case "CreatePipelineItem":
			assert.Equal(t, "77", params["PipelineId"])
			assert.Equal(t, "Foreslått", params["StatusName"])
			assert.Equal(t, map[string]any{"5001": "Fjord Frisør AS"}, params["CustomFields"])
			return map[string]any{"Success": true, "Result": map[string]any{"PipelineItemId": "9001"}}
		}
		t.Errorf("unexpected function %s", function)
		return nil
	})
	defer srv.Close()

	c := newTestClient(srv)
	pipelines, err := c.GetPipelines(context.Background())
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "77", pipelines[0].PipelineID.String())

	id, err := c.CreatePipeline(context.Background(), "Ny pipeline", []string{"Foreslått", "Kontaktet"})
	require.NoError(t, err)
	assert.Equal(t, "78", id)

	itemID, err := c.CreatePipelineItem(context.Background(), PipelineItem{
		PipelineID:   "77",
		Name:         "Fjord Frisør AS - Webdesign / Nettprofil",
		StatusName:   "Foreslått",
		CustomFields: map[string]string{"5001": "Fjord Frisør AS"},
	})
	require.NoError(t, err)
	assert.Equal(t, "9001", itemID)
}

func TestCall_APIError(t *testing.T) {
	t.Parallel()
	srv := formServer(t, func(string, map[string]any) any {
		return map[string]any{"Success": false, "Result": "Invalid API token"}
	})
	defer srv.Close()

	_, err := newTestClient(srv).SearchContacts(context.Background(), "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "SearchContacts", apiErr.Function)
	assert.Equal(t, "Invalid API token", apiErr.Message)
}

func TestCall_RetriesTransientStatus(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"Success":true,"Result":[]}`))
	}))
	defer srv.Close()

	contacts, err := newTestClient(srv).SearchContacts(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, contacts)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCall_PermanentStatusNotRetried(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetPipelines(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFlexString(t *testing.T) {
	t.Parallel()
	var v struct {
		A, B, C, D FlexString
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A":"x","B":12345678901234567890,"C":true,"D":null}`), &v))
	assert.Equal(t, FlexString("x"), v.A)
	assert.Equal(t, FlexString("12345678901234567890"), v.B)
	assert.Equal(t, FlexString("1"), v.C)
	assert.Equal(t, FlexString(""), v.D)
}
