package prompts

import (
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/weather-agent/pkg/llmutils"
)

// PromptValue is the value of a formatted prompt.
type PromptValue interface {
	String() string
	Messages() []llms.Message
}

// FormatPrompter formats a prompt from the given input values.
type FormatPrompter interface {
	FormatPrompt(values map[string]any) (PromptValue, error)
	GetInputVariables() []string
}

var (
	_ PromptValue    = StringPromptValue("")
	_ PromptValue    = ChatPromptValue(nil)
	_ FormatPrompter = (*PromptTemplate)(nil)
)

// StringPromptValue is a prompt value that is a string.
type StringPromptValue string

func (v StringPromptValue) String() string {
	return string(v)
}

// Messages returns the string prompt as a single system message.
func (v StringPromptValue) Messages() []llms.Message {
	return []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, string(v)),
	}
}

// ChatPromptValue is a prompt value that is a list of chat messages.
type ChatPromptValue []llms.Message

// String returns the chat message slice as a buffer string.
func (v ChatPromptValue) String() string {
	var buf strings.Builder
	llmutils.PrintMessages(&buf, v)
	return buf.String()
}

// Messages returns the message slice.
func (v ChatPromptValue) Messages() []llms.Message {
	return v
}

// PromptTemplate is a text template with declared input variables,
// using the text/template `{{.name}}` syntax.
type PromptTemplate struct {
	Template       string
	InputVariables []string
}

func NewPromptTemplate(tmpl string, inputVariables []string) *PromptTemplate {
	return &PromptTemplate{
		Template:       tmpl,
		InputVariables: inputVariables,
	}
}

func (p *PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}

func (p *PromptTemplate) FormatPrompt(values map[string]any) (PromptValue, error) {
	for _, name := range p.InputVariables {
		if _, ok := values[name]; !ok {
			return nil, errors.Newf("missing prompt input variable: %s", name)
		}
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to parse prompt template")
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, values); err != nil {
		return nil, errors.WithMessage(err, "failed to format prompt")
	}
	return StringPromptValue(buf.String()), nil
}
