package filename

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docextract/constants"
)

// BuildFieldsJSONSchema returns the JSON-Schema that structured filename fields must satisfy.
// Downstream field extraction receives the same shape.
func BuildFieldsJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"data_vencimento": map[string]any{"type": "string", "pattern": `^\d{2}/\d{2}/\d{4}$`},
			"valor":           map[string]any{"type": "string", "pattern": `^R\$ \d{1,3}([.,]\d{3})*[.,]\d{2}$`},
			"status":          map[string]any{"type": "string", "enum": []string{constants.PaymentPaid, constants.PaymentScheduled}},
			"centro_custo":    map[string]any{"type": "string", "pattern": `^[A-Z]{2,4}\d*$`},
			"categoria":       map[string]any{"type": "string", "enum": constants.AsStringSlice()},
			"descricao":       map[string]any{"type": "string", "minLength": 1},
		},
	}
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("fields.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validate checks the JSON encoding of data against schema.
func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("fields do not match schema: %w", err)
	}
	return nil
}
