package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const quizSchemaURL = "schema://quiz.json"

// Any non-empty type is accepted so newer quiz kinds can be stored before the
// grading engine knows them. Types that are scored automatically need a key.
const quizSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["_id", "type", "data"],
  "properties": {
    "_id": {"type": "string", "minLength": 1},
    "type": {"type": "string", "minLength": 1},
    "tags": {"type": ["array", "null"], "items": {"type": "string"}},
    "data": {
      "type": "object",
      "properties": {
        "items": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "string", "minLength": 1}}
          }
        },
        "meta": {"type": "object"}
      }
    }
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"enum": ["MULTIPLE_CHOICE", "OPEN"]}}},
      "then": {"properties": {"data": {"required": ["meta"], "properties": {"meta": {"required": ["rightAnswer"]}}}}}
    },
    {
      "if": {"properties": {"type": {"enum": ["RADIO_MATRIX", "MULTIPLE_OPEN"]}}},
      "then": {
        "properties": {
          "data": {
            "required": ["meta"],
            "properties": {"meta": {"required": ["rightAnswer"], "properties": {"rightAnswer": {"type": "object"}}}}
          }
        }
      }
    }
  ]
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func quizSchemaCompiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(quizSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse quiz schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(quizSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add quiz schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(quizSchemaURL)
	})
	return compiled, compileErr
}

// ValidateQuiz checks that a quiz definition has the shape its type needs.
// Violations are reported wrapped in ErrInvalidQuiz.
func ValidateQuiz(q Quiz) error {
	sch, err := quizSchemaCompiled()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	return nil
}
