package notify

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// Templates are pongo2 sources used to build notification text. Success
// templates receive score, raw and attempt_id; failure templates receive
// reason, kind, status and attempt_id. Empty entries fall back to the
// defaults.
type Templates struct {
	SuccessTitle       string `yaml:"success_title" json:"successTitle"`
	SuccessDescription string `yaml:"success_description" json:"successDescription"`
	FailureTitle       string `yaml:"failure_title" json:"failureTitle"`
	FailureDescription string `yaml:"failure_description" json:"failureDescription"`
}

// DefaultTemplates returns the built-in message templates.
func DefaultTemplates() Templates {
	return Templates{
		SuccessTitle:       "Credit score prediction ready",
		SuccessDescription: "{% if score %}Predicted credit score: {{ score|safe }}{% else %}Classifier response: {{ raw|safe }}{% endif %}",
		FailureTitle:       "Submission failed",
		FailureDescription: "{{ reason|safe }}{% if status %} (HTTP {{ status }}){% endif %}",
	}
}

// Messages renders notification titles and descriptions.
type Messages struct {
	successTitle       *pongo2.Template
	successDescription *pongo2.Template
	failureTitle       *pongo2.Template
	failureDescription *pongo2.Template
}

// NewMessages compiles the templates.
func NewMessages(t Templates) (*Messages, error) {
	defaults := DefaultTemplates()
	pick := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	}

	var (
		m   Messages
		err error
	)
	if m.successTitle, err = compile("success_title", pick(t.SuccessTitle, defaults.SuccessTitle)); err != nil {
		return nil, err
	}
	if m.successDescription, err = compile("success_description", pick(t.SuccessDescription, defaults.SuccessDescription)); err != nil {
		return nil, err
	}
	if m.failureTitle, err = compile("failure_title", pick(t.FailureTitle, defaults.FailureTitle)); err != nil {
		return nil, err
	}
	if m.failureDescription, err = compile("failure_description", pick(t.FailureDescription, defaults.FailureDescription)); err != nil {
		return nil, err
	}
	return &m, nil
}

// DefaultMessages compiles DefaultTemplates.
func DefaultMessages() *Messages {
	m, err := NewMessages(DefaultTemplates())
	if err != nil {
		panic(fmt.Sprintf("notify: default templates: %v", err))
	}
	return m
}

func compile(name, source string) (*pongo2.Template, error) {
	tpl, err := pongo2.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("notify: compile %s template: %w", name, err)
	}
	return tpl, nil
}

// Render builds the title and description for kind. String values in data
// are reduced to plain text first since they may echo remote content.
func (m *Messages) Render(kind Kind, data map[string]any) (string, string, error) {
	ctx := make(pongo2.Context, len(data))
	for key, value := range data {
		if s, ok := value.(string); ok {
			value = PlainText(s)
		}
		ctx[key] = value
	}

	titleTpl, descTpl := m.successTitle, m.successDescription
	if kind == KindFailure {
		titleTpl, descTpl = m.failureTitle, m.failureDescription
	}

	title, err := titleTpl.Execute(ctx)
	if err != nil {
		return "", "", fmt.Errorf("notify: render %s title: %w", kind, err)
	}
	desc, err := descTpl.Execute(ctx)
	if err != nil {
		return "", "", fmt.Errorf("notify: render %s description: %w", kind, err)
	}
	return strings.TrimSpace(title), strings.TrimSpace(desc), nil
}

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

// PlainText strips markup from s and decodes entities so the result is safe
// to print in a terminal or hand to a toast renderer as text.
func PlainText(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(trimmed)))
}
