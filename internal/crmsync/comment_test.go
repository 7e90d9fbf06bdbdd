package crmsync

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/salgsmotor/pkg/anthropic"
	anthropicmocks "github.com/sells-group/salgsmotor/pkg/anthropic/mocks"
	"github.com/sells-group/salgsmotor/pkg/lacrm"
	lacrmmocks "github.com/sells-group/salgsmotor/pkg/lacrm/mocks"
)

func TestAICommenter_NoClient(t *testing.T) {
	t.Parallel()
	got := NewAICommenter(nil, "").Comment(context.Background(), fullRecord(), "Modernisering")
	assert.Equal(t, "Anbefalt tjeneste: Modernisering basert på automatisk analyse.", got)
}

func TestAICommenter_Success(t *testing.T) {
	t.Parallel()
	llm := anthropicmocks.NewMockClient(t)
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 200 &&
			req.Temperature != nil && *req.Temperature == 0.7 &&
			req.System == commentSystemPrompt &&
			len(req.Messages) == 1 &&
			strings.Contains(req.Messages[0].Content, "Selskap: FJORD FRISØR AS") &&
			strings.Contains(req.Messages[0].Content, "Antall ansatte: 3") &&
			strings.Contains(req.Messages[0].Content, "Anbefalt tjeneste: Modernisering") &&
			strings.Contains(req.Messages[0].Content, "maks 150 ord")
	})).Return(anthropicmocks.TextResponse("  Ta kontakt om en ny nettside.  "), nil)

	got := NewAICommenter(llm, "claude-haiku-4-5-20251001").Comment(context.Background(), fullRecord(), "Modernisering")
	assert.Equal(t, "Ta kontakt om en ny nettside.", got)
}

func TestAICommenter_ErrorFallsBack(t *testing.T) {
	t.Parallel()
	llm := anthropicmocks.NewMockClient(t)
	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	got := NewAICommenter(llm, "m").Comment(context.Background(), fullRecord(), "Hosting / vedlikehold")
	assert.True(t, strings.HasPrefix(got, "Anbefalt tjeneste: Hosting / vedlikehold. Selskapet kan dra nytte"), got)
}

func TestCommentContext_Defaults(t *testing.T) {
	t.Parallel()
	got := commentContext(record("923609016", ""), "SEO")
	assert.Contains(t, got, "Selskap: Ukjent selskap")
	assert.Contains(t, got, "Bransje: Ukjent bransje")
	assert.Contains(t, got, "Antall ansatte: 0")
	assert.Contains(t, got, "Nettside: Ingen nettside")
}

func TestFieldsGuide(t *testing.T) {
	t.Parallel()
	crm := lacrmmocks.NewMockClient(t)
	crm.On("GetCustomFields", mock.Anything).Return(&lacrm.CustomFields{
		Company: []lacrm.CustomField{{CustomFieldID: "4012", Name: "orgnr", Type: "Text"}},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, FieldsGuide(context.Background(), crm, &buf))
	out := buf.String()
	assert.Contains(t, out, "COMPANY CUSTOM FIELDS")
	assert.NotContains(t, out, "CONTACT CUSTOM FIELDS")
	assert.Contains(t, out, "orgnr                          | ID: 4012 | Type: Text")
	assert.Contains(t, out, "salgsmotor_notat")
}

func TestFieldsGuide_Error(t *testing.T) {
	t.Parallel()
	crm := lacrmmocks.NewMockClient(t)
	crm.On("GetCustomFields", mock.Anything).Return(nil, errors.New("down"))
	assert.Error(t, FieldsGuide(context.Background(), crm, &bytes.Buffer{}))
}
