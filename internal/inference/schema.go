package inference

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// classifySchema pins down the model server's response shape before it is
// trusted by aggregation. A server drifting from the contract surfaces here
// as an inference error, not as a panic downstream.
const classifySchema = `{
  "type": "object",
  "required": ["predictions"],
  "properties": {
    "predictions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label_id", "scores"],
        "properties": {
          "label_id": {"type": "integer", "minimum": 0},
          "scores": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "number", "minimum": 0, "maximum": 1}
          }
        }
      }
    }
  }
}`

var compiledClassifySchema = jsonschema.MustCompileString("classify.json", classifySchema)

func validateClassifyResponse(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("response is not json: %w", err)
	}
	if err := compiledClassifySchema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
