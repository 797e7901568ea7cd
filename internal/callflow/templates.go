package callflow

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// TemplateName identifies a versioned prompt template resource.
type TemplateName string

const (
	TemplateCallScriptScreening             TemplateName = "callscript.screening.v1"
	TemplateCallScriptBackgroundCheck       TemplateName = "callscript.bgv.v1"
	TemplateCallScriptScreeningPlaceholders TemplateName = "callscript.screening_placeholders.v1"
	TemplateEmailBackgroundCheck            TemplateName = "email.bgv.v1"
	TemplateEmailInterview                  TemplateName = "email.interview.v1"
	TemplateTranslate                       TemplateName = "translate.v1"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates is the parsed set of prompt templates. Placeholders use [[ ]] so
// the {{Candidate_Name}} style tokens meant for downstream filling survive rendering.
type Templates struct {
	root *template.Template
}

// LoadTemplates parses every embedded template.
func LoadTemplates() (*Templates, error) {
	root, err := template.New("root").
		Delims("[[", "]]").
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{root: root}, nil
}

// MustLoadTemplates is LoadTemplates for package-level initialisation.
func MustLoadTemplates() *Templates {
	t, err := LoadTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// Names lists the registered template names in sorted order.
func (t *Templates) Names() []TemplateName {
	var names []TemplateName
	for _, tmpl := range t.root.Templates() {
		if tmpl.Name() == "root" {
			continue
		}
		names = append(names, TemplateName(strings.TrimSuffix(tmpl.Name(), ".tmpl")))
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Render executes the named template with data.
func (t *Templates) Render(name TemplateName, data any) (string, error) {
	tmpl := t.root.Lookup(string(name) + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
