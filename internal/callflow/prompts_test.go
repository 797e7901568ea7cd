package callflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCallScriptPrompt(t *testing.T) {
	tests := []struct {
		vendor, intent string
		want           TemplateName
	}{
		{"1", "1", TemplateCallScriptScreening},
		{"1", "13", TemplateCallScriptScreening},
		{"2", "13", TemplateCallScriptBackgroundCheck},
		{"2", "1", TemplateCallScriptScreeningPlaceholders},
		{"", "", TemplateCallScriptScreeningPlaceholders},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectCallScriptPrompt(tt.vendor, tt.intent), "vendor=%q intent=%q", tt.vendor, tt.intent)
	}
}

func TestSelectEmailPrompt(t *testing.T) {
	assert.Equal(t, TemplateEmailBackgroundCheck, SelectEmailPrompt("13"))
	assert.Equal(t, TemplateEmailInterview, SelectEmailPrompt("1"))
	assert.Equal(t, TemplateEmailInterview, SelectEmailPrompt(""))
}

func TestTemplates_Names(t *testing.T) {
	tpl, err := LoadTemplates()
	require.NoError(t, err)
	assert.Equal(t, []TemplateName{
		TemplateCallScriptBackgroundCheck,
		TemplateCallScriptScreening,
		TemplateCallScriptScreeningPlaceholders,
		TemplateEmailBackgroundCheck,
		TemplateEmailInterview,
		TemplateTranslate,
	}, tpl.Names())
}

func TestTemplates_RenderUnknown(t *testing.T) {
	_, err := defaultTemplates.Render("nope.v9", nil)
	assert.Error(t, err)
}

func TestCallScriptPrompt_Interpolates(t *testing.T) {
	g := GenerationRequest{TranscriptText: "T-TEXT", DocumentText: "D-TEXT", VendorID: "2", IntentID: "13"}
	out, err := defaultTemplates.CallScriptPrompt(g)
	require.NoError(t, err)
	assert.Contains(t, out, `"T-TEXT" and "D-TEXT"`)
	assert.Contains(t, out, "{{Candidate_Name}}")
	assert.NotContains(t, out, "[[")
}

func TestEmailPrompt_BackgroundCheckOmitsDocument(t *testing.T) {
	g := GenerationRequest{TranscriptText: "T-TEXT", DocumentText: "D-TEXT", IntentID: "13"}
	out, err := defaultTemplates.EmailPrompt(g)
	require.NoError(t, err)
	assert.Contains(t, out, `"T-TEXT"`)
	assert.NotContains(t, out, "D-TEXT")

	g.IntentID = "1"
	out, err = defaultTemplates.EmailPrompt(g)
	require.NoError(t, err)
	assert.Contains(t, out, "D-TEXT")
}
