package analysis

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/career-quiz/internal/ai"
)

const recommendationSchemaJSON = `{
  "type": "object",
  "required": ["careerRecommendation", "professionIds"],
  "properties": {
    "careerRecommendation": {"type": "string", "minLength": 1},
    "professionIds": {"type": "array", "items": {"type": "string"}}
  }
}`

var recommendationSchema = mustSchema(recommendationSchemaJSON)

// ParseRecommendation parses raw model output. Invalid JSON or a non-object
// document is a KindMalformedAIOutput error carrying the raw text. Missing or
// unusable professionIds degrade to an empty list; a missing recommendation
// stays empty.
func ParseRecommendation(raw string) (*ai.Recommendation, error) {
	rec, _, err := parseRecommendation(raw)
	return rec, err
}

// parseRecommendation additionally returns schema conformance issues. They
// are informational only.
func parseRecommendation(raw string) (*ai.Recommendation, []string, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, nil, &Error{Kind: KindMalformedAIOutput, Message: "AI response is not valid JSON", Raw: raw, Err: err}
	}
	if data == nil {
		return nil, nil, &Error{Kind: KindMalformedAIOutput, Message: "AI response is not a JSON object", Raw: raw, Err: errors.New("null document")}
	}

	issues := schemaIssues(data)
	rec := &ai.Recommendation{Raw: raw, ProfessionIDs: []string{}}

	if value, ok := data[ai.FieldCareerRecommendation]; ok && value != nil {
		var text string
		if err := weakDecode(value, &text); err != nil {
			issues = append(issues, ai.FieldCareerRecommendation+": "+err.Error())
		} else {
			rec.CareerRecommendation = strings.TrimSpace(text)
		}
	}

	if value, ok := data[ai.FieldProfessionIDs]; ok && value != nil {
		var ids []string
		if err := weakDecode(value, &ids); err != nil {
			issues = append(issues, ai.FieldProfessionIDs+": "+err.Error())
		} else {
			rec.ProfessionIDs = normalizeIDs(ids)
		}
	}

	return rec, issues, nil
}

func weakDecode(input, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func schemaIssues(data map[string]any) []string {
	result, err := recommendationSchema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return issues
}

// normalizeIDs trims identifiers and drops blanks and duplicates, keeping
// the model's order.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
