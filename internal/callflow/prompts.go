package callflow

const (
	vendorScreening     = "1"
	intentBackgroundChk = "13"

	systemCallFlow = "You have to give a conversation call flow"
)

// SelectCallScriptPrompt picks the call-script template. The vendor check
// wins over the intent check.
func SelectCallScriptPrompt(vendorID, intentID string) TemplateName {
	switch {
	case vendorID == vendorScreening:
		return TemplateCallScriptScreening
	case intentID == intentBackgroundChk:
		return TemplateCallScriptBackgroundCheck
	default:
		return TemplateCallScriptScreeningPlaceholders
	}
}

// SelectEmailPrompt picks the email template. Vendor plays no part.
func SelectEmailPrompt(intentID string) TemplateName {
	if intentID == intentBackgroundChk {
		return TemplateEmailBackgroundCheck
	}
	return TemplateEmailInterview
}

type promptData struct {
	Transcript string
	Document   string
}

// CallScriptPrompt renders the call-script prompt for g.
func (t *Templates) CallScriptPrompt(g GenerationRequest) (string, error) {
	return t.Render(SelectCallScriptPrompt(g.VendorID, g.IntentID), promptData{
		Transcript: g.TranscriptText,
		Document:   g.DocumentText,
	})
}

// EmailPrompt renders the email prompt for g.
func (t *Templates) EmailPrompt(g GenerationRequest) (string, error) {
	return t.Render(SelectEmailPrompt(g.IntentID), promptData{
		Transcript: g.TranscriptText,
		Document:   g.DocumentText,
	})
}
