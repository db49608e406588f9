package analysis

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/career-quiz/internal/quiz"
)

const answersSchemaJSON = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "questionId": {"type": "string"},
      "selectedOptionId": {"type": "string"}
    }
  }
}`

var answersSchema = mustSchema(answersSchemaJSON)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(err)
	}
	return schema
}

// DecodeAnswers validates and decodes an analyze request body. Only the shape
// is checked here: items with missing ids are kept and later reported as
// diagnostics by the resolver.
func DecodeAnswers(body []byte) ([]quiz.SubmittedAnswer, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, invalidRequest("request body must be a non-empty array of answers")
	}

	result, err := answersSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: "request body is not valid JSON", Err: err}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, invalidRequest("request body must be a non-empty array of answers: %s", strings.Join(details, "; "))
	}

	var answers []quiz.SubmittedAnswer
	if err := json.Unmarshal(body, &answers); err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: "decode answers", Err: err}
	}

	return answers, nil
}
