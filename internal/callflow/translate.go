package callflow

import (
	"context"
	"fmt"
)

var languageNames = map[string]string{
	"pt": "Portuguese",
	"es": "Spanish",
}

// LanguageName returns the display name used in translation prompts. Codes
// without a name (including "en") are not translated.
func LanguageName(code string) (string, bool) {
	name, ok := languageNames[code]
	return name, ok
}

type translateData struct {
	Payload  string
	Language string
}

// translate asks the model to translate the values of obj into language and
// parses the reply with the same normalizer as the generation step.
func (s *Service) translate(ctx context.Context, obj map[string]any, language string) (map[string]any, error) {
	payload, err := compactJSON(obj)
	if err != nil {
		return nil, fmt.Errorf("serialize for translation: %w", err)
	}

	prompt, err := s.templates.Render(TemplateTranslate, translateData{Payload: payload, Language: language})
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf("You have to convert data into %s Language", language)
	raw, err := s.complete(ctx, "translate", system, prompt)
	if err != nil {
		return nil, fmt.Errorf("translate to %s: %w", language, err)
	}
	return s.normalizer.ParseObject(raw)
}
