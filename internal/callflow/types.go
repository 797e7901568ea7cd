package callflow

import (
	"fmt"
	"strings"
)

// Request carries one generation call's inputs. FileRef is the stored name of
// an uploaded job description, empty when none was supplied.
type Request struct {
	TranscriptText string
	FileRef        string
	Environment    string
	VendorID       string
	IntentID       string
	LanguageCode   string
}

// GenerationRequest is what the prompt selector consumes once the document
// text has been resolved.
type GenerationRequest struct {
	TranscriptText string
	DocumentText   string
	VendorID       string
	IntentID       string
}

type PreScreeningQuestion struct {
	Question    string `json:"question"`
	IdealAnswer string `json:"ideal_answer"`
}

type CallScriptPayload struct {
	Prompt                string                 `json:"prompt"`
	YourRole              string                 `json:"your_role,omitempty"`
	RulesToFollow         string                 `json:"rules_to_follow,omitempty"`
	OpeningLayer          string                 `json:"opening_layer"`
	ContextOfTheCall      string                 `json:"context_of_the_call"`
	JobOverview           string                 `json:"job_overview"`
	PreScreeningQuestions []PreScreeningQuestion `json:"pre_screening_questions"`
	CallEndingMessage     string                 `json:"call_ending_message"`
}

type EmailPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Model output uses the titled section names from the prompt; callers may also
// send the snake_case names back, so both are accepted.
var (
	keyPrompt            = []string{"Prompt", "prompt"}
	keyYourRole          = []string{"Your Role", "your_role"}
	keyRulesToFollow     = []string{"Rules to Follow", "rules_to_follow"}
	keyOpeningLayer      = []string{"Opening Layer", "opening_layer"}
	keyContextOfTheCall  = []string{"Context of the Call", "context_of_the_call"}
	keyJobOverview       = []string{"Job Overview", "job_overview"}
	keyPreScreening      = []string{"Pre-screening Questions", "pre_screening_questions"}
	keyCallEndingMessage = []string{"Call Ending Message", "call_ending_message"}
	keyQuestion          = []string{"Question", "question"}
	keyIdealAnswer       = []string{"Ideal Answer", "ideal_answer"}
	keySubject           = []string{"subject", "Subject"}
	keyBody              = []string{"body", "Body"}
)

// callScriptFromObject maps a normalized model object onto the payload.
// Missing sections become empty strings.
func callScriptFromObject(obj map[string]any) *CallScriptPayload {
	p := &CallScriptPayload{
		Prompt:                stringField(obj, keyPrompt),
		YourRole:              stringField(obj, keyYourRole),
		RulesToFollow:         stringField(obj, keyRulesToFollow),
		OpeningLayer:          stringField(obj, keyOpeningLayer),
		ContextOfTheCall:      stringField(obj, keyContextOfTheCall),
		JobOverview:           stringField(obj, keyJobOverview),
		CallEndingMessage:     stringField(obj, keyCallEndingMessage),
		PreScreeningQuestions: []PreScreeningQuestion{},
	}

	if list, ok := lookup(obj, keyPreScreening).([]any); ok {
		for _, item := range list {
			q := PreScreeningQuestion{}
			switch v := item.(type) {
			case map[string]any:
				q.Question = stringField(v, keyQuestion)
				q.IdealAnswer = stringField(v, keyIdealAnswer)
			case string:
				q.Question = v
			default:
				continue
			}
			p.PreScreeningQuestions = append(p.PreScreeningQuestions, q)
		}
	}
	return p
}

func emailFromObject(obj map[string]any) *EmailPayload {
	return &EmailPayload{
		Subject: stringField(obj, keySubject),
		Body:    stringField(obj, keyBody),
	}
}

func lookup(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

func stringField(obj map[string]any, keys []string) string {
	switch v := lookup(obj, keys).(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		// "Rules to Follow" sometimes comes back as a list of lines.
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(v)
	}
}
