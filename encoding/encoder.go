package encoding

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/llmutils"
	"github.com/effective-security/weather-agent/pkg/schema"
	"github.com/go-playground/validator/v10"
)

// SchemaEncoder marshals and unmarshals values of a declared schema,
// and renders the schema instructions for the prompt.
type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the wrapped message with message schema for the prompt
	GetFormatInstructions() string
}

type Validator interface {
	Validate(any) error
}

type Mode = string

const (
	ModeJSON       Mode = "json"
	ModeJSONSchema Mode = "json_schema"
	ModePlainText  Mode = "plain_text"
)

// ModeDefault is the default mode for the encoder.
var ModeDefault = ModeJSONSchema

func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	switch mode {
	case ModeJSON, ModeJSONSchema:
		return NewJSONEncoder(req)
	case ModePlainText:
		return &textEncoder{}, nil
	default:
		return nil, errors.New("no predefined encoder")
	}
}

// JSONEncoder decodes model output leniently: LLM replies are trimmed of
// surrounding prose and fenced blocks before parsing.
type JSONEncoder struct {
	schema *schema.Schema
}

func NewJSONEncoder(req any) (*JSONEncoder, error) {
	t := reflect.TypeOf(req)
	sc, err := schema.New(t)
	if err != nil {
		return nil, err
	}
	return &JSONEncoder{
		schema: sc,
	}, nil
}

func (e *JSONEncoder) Marshal(req any) ([]byte, error) {
	return json.Marshal(req)
}

func (e *JSONEncoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.CleanJSON(bs)
	return ljson.Unmarshal(data, ret)
}

func (e *JSONEncoder) Validate(req any) error {
	validate := validator.New()
	return validate.Struct(req)
}

func (e *JSONEncoder) GetFormatInstructions() string {
	var b bytes.Buffer
	b.WriteString("\nRespond with JSON in the following JSON schema:\n")
	b.WriteString("```json\n")
	b.WriteString(e.schema.String())
	b.WriteString("\n```")
	b.WriteString("\nMake sure to return an instance of the JSON, not the schema itself.\n")
	b.WriteString("Use the exact field names as they are defined in the schema.\n")
	return b.String()
}

func (e *JSONEncoder) Schema() *schema.Schema {
	return e.schema
}

type textEncoder struct{}

func (e *textEncoder) Marshal(req any) ([]byte, error) {
	if s, ok := req.(interface{ String() string }); ok {
		return []byte(s.String()), nil
	}
	return json.Marshal(req)
}

func (e *textEncoder) Unmarshal(bs []byte, ret any) error {
	if s, ok := ret.(*string); ok {
		*s = string(bs)
		return nil
	}
	return errors.New("plain text encoder supports only string targets")
}

func (e *textEncoder) GetFormatInstructions() string { return "" }
