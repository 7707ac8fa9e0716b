package advice

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultPromptTemplate is the advisor persona sent to the model.
const DefaultPromptTemplate = `You're a sassy, slightly mean (but funny), financial advisor. ` +
	`Someone making ${{.MonthlyIncome}}/month wants to buy a {{.ItemName}} for ${{.ItemPrice}}. ` +
	`Comment on their decision in a short, witty response (max 50 words). ` +
	`Be creative and use emojis. If it's actually a sensible purchase, you can reluctantly admit it, ` +
	`but still be snarky about it.`

// Prompt renders a Request into model input.
type Prompt struct {
	tmpl *template.Template
}

type promptData struct {
	MonthlyIncome string
	ItemName      string
	ItemPrice     string
}

// NewPrompt parses text as a text/template. Empty text selects
// DefaultPromptTemplate.
func NewPrompt(text string) (*Prompt, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultPromptTemplate
	}
	tmpl, err := template.New("advice").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, newError(KindConfig, "", fmt.Errorf("parse prompt template: %w", err))
	}
	return &Prompt{tmpl: tmpl}, nil
}

// MustPrompt is NewPrompt for templates known to be valid.
func MustPrompt(text string) *Prompt {
	p, err := NewPrompt(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Render fills the template with the request's raw fields.
func (p *Prompt) Render(req Request) (string, error) {
	var b strings.Builder
	err := p.tmpl.Execute(&b, promptData{
		MonthlyIncome: strings.TrimPrefix(req.MonthlyIncome.Raw, "$"),
		ItemName:      strings.TrimSpace(req.ItemName),
		ItemPrice:     strings.TrimPrefix(req.ItemPrice.Raw, "$"),
	})
	if err != nil {
		return "", newError(KindConfig, "", fmt.Errorf("render prompt: %w", err))
	}
	return b.String(), nil
}
