package provision

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigsyaml "sigs.k8s.io/yaml"
)

// documentSchema validates the structure of a strategy document before
// decoding. Semantic checks (size grammar, role and type vocabulary, disk
// references) happen during decode, where node positions are available.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["strategies"],
  "additionalProperties": false,
  "properties": {
    "strategies": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "disks", "partitions"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "summary": {"type": "string"},
          "disks": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id"],
              "additionalProperties": false,
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "name": {"type": "string"},
                "min-size": {"type": "string"},
                "max-size": {"type": "string"}
              }
            }
          },
          "partition-table": {
            "type": "object",
            "required": ["type"],
            "additionalProperties": false,
            "properties": {
              "type": {"enum": ["gpt"]},
              "disk": {"type": "string"}
            }
          },
          "partitions": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id", "constraints"],
              "additionalProperties": false,
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "disk": {"type": "string"},
                "role": {"type": "string"},
                "type": {"type": "string"},
                "constraints": {
                  "type": "object",
                  "additionalProperties": false,
                  "properties": {
                    "min": {"type": "string"},
                    "max": {"type": "string"},
                    "remaining": {"type": "boolean"}
                  }
                },
                "filesystem": {
                  "type": "object",
                  "required": ["type"],
                  "additionalProperties": false,
                  "properties": {
                    "type": {"type": "string"},
                    "label": {"type": "string"},
                    "uuid": {"type": "string"},
                    "volume_id": {"type": "integer"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("document.schema.json", documentSchema)

// validateSchema checks a YAML document against the embedded schema.
func validateSchema(data []byte) error {
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return &ParseError{Msg: fmt.Sprintf("invalid YAML: %v", err)}
	}

	var v any
	if err := json.Unmarshal(jsonData, &v); err != nil {
		return &ParseError{Msg: fmt.Sprintf("invalid document: %v", err)}
	}

	if err := compiledSchema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return &ParseError{
				Msg:    fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message),
				Advice: "see the strategy document reference for the accepted shape",
			}
		}
		return err
	}
	return nil
}
