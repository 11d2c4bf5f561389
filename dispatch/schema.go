package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// argSchemaSources holds the JSON Schema of each request type that carries an
// argument. Fields the host does not read are allowed.
var argSchemaSources = map[string]string{
	TypeSignEvent: `{
		"type": "object",
		"required": ["event"],
		"properties": {
			"event": {
				"type": "object",
				"required": ["kind"],
				"properties": {
					"id":         {"type": "string"},
					"sig":        {"type": "string"},
					"kind":       {"type": "integer", "minimum": 0},
					"tags":       {"type": ["array", "null"], "items": {"type": "array", "items": {"type": "string"}}},
					"pubkey":     {"type": "string"},
					"content":    {"type": "string"},
					"created_at": {"type": "integer"}
				}
			}
		}
	}`,
	TypeEncrypt: `{
		"type": "object",
		"required": ["pubkey", "plaintext"],
		"properties": {
			"pubkey":    {"type": "string"},
			"plaintext": {"type": "string"}
		}
	}`,
	TypeDecrypt: `{
		"type": "object",
		"required": ["pubkey", "ciphertext"],
		"properties": {
			"pubkey":     {"type": "string"},
			"ciphertext": {"type": "string"}
		}
	}`,
}

var argSchemas = compileArgSchemas()

func compileArgSchemas() map[string]*jsonschema.Schema {
	compiled := make(map[string]*jsonschema.Schema, len(argSchemaSources))
	for typ, source := range argSchemaSources {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		schemaURL := fmt.Sprintf("https://nostrhost.schemas.local/arg/%s.schema.json", typ)
		if err := c.AddResource(schemaURL, strings.NewReader(source)); err != nil {
			panic(fmt.Sprintf("load %s arg schema: %v", typ, err))
		}
		compiled[typ] = c.MustCompile(schemaURL)
	}
	return compiled
}

// validateArg checks arg against the schema for typ. Types without a schema
// accept any argument. Validation detail is dropped: it can quote the input.
func validateArg(typ string, arg json.RawMessage) error {
	schema, ok := argSchemas[typ]
	if !ok {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(arg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: malformed arg", ErrInvalidRequest)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %s arg does not match schema", ErrInvalidRequest, typ)
	}
	return nil
}
