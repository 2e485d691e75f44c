package intent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "github.com/garyellow/courseai-go/internal/errors"
)

// SchemaJSON is the JSON Schema of the canonical intent wire format.
//
//go:embed schema.json
var SchemaJSON string

const schemaResource = "intent.schema.json"

var (
	intentSchema = mustCompileSchema(SchemaJSON)
	printer      = message.NewPrinter(language.English)
)

func mustCompileSchema(raw string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("intent: parse embedded schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		panic(fmt.Sprintf("intent: add schema resource: %v", err))
	}
	sch, err := c.Compile(schemaResource)
	if err != nil {
		panic(fmt.Sprintf("intent: compile schema: %v", err))
	}
	return sch
}

// Validate checks a decoded JSON value against the intent schema.
func Validate(instance any) error {
	if err := intentSchema.Validate(instance); err != nil {
		return apperrors.NewValidationError("intent", schemaMessage(err))
	}
	return nil
}

// ValidateIntent checks that in serializes to a schema-conformant document.
func ValidateIntent(in Intent) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode intent: %w", err)
	}
	return Validate(doc)
}

// Decode parses and validates an intent document supplied by a client,
// then canonicalizes it. Omitted fields take their defaults.
func Decode(data []byte) (Intent, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Intent{}, apperrors.NewValidationError("intent", "body is not valid JSON")
	}
	if err := Validate(doc); err != nil {
		return Intent{}, err
	}
	in := Default()
	if err := json.Unmarshal(data, &in); err != nil {
		return Intent{}, apperrors.NewValidationError("intent", err.Error())
	}
	in.Canonicalize()
	return in, nil
}

func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectCauses(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectCauses(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		*out = append(*out, "/"+strings.Join(ve.InstanceLocation, "/")+": "+ve.ErrorKind.LocalizedString(printer))
		return
	}
	for _, c := range ve.Causes {
		collectCauses(c, out)
	}
}
