package scorer

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/skriba-app/skriba-api/internal/rubric"
)

// scoreCardSchema pins the wire shape of a scorer response. Point bounds and
// total consistency are rubric.Validate's job; this only rejects payloads
// that are structurally not a score card, so shape errors surface as scorer
// failures rather than validation failures.
const scoreCardSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["criteria", "total_score", "feedback"],
  "properties": {
    "criteria": {
      "type": "object",
      "required": [
        "formal_requirements",
        "literary_competencies",
        "structure",
        "coherence",
        "style",
        "language",
        "spelling",
        "punctuation"
      ],
      "additionalProperties": {
        "type": "object",
        "required": ["points"],
        "properties": {
          "points": {"type": "integer"},
          "error_count": {"type": "integer"},
          "disqualifiers": {
            "type": "object",
            "properties": {
              "cardinal_error": {"type": "boolean"},
              "missing_reference": {"type": "boolean"},
              "off_topic": {"type": "boolean"},
              "non_argumentative": {"type": "boolean"}
            }
          }
        }
      }
    },
    "total_score": {"type": "integer"},
    "feedback": {"type": "string"},
    "errors": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledScoreCardSchema = jsonschema.MustCompileString("score_card.json", scoreCardSchema)

// decodeScoreCard validates the raw scorer JSON against the wire schema and
// unmarshals it into a rubric candidate.
func decodeScoreCard(content string) (rubric.Candidate, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return rubric.Candidate{}, fmt.Errorf("parse score card json: %w", err)
	}

	if err := compiledScoreCardSchema.Validate(payload); err != nil {
		return rubric.Candidate{}, fmt.Errorf("score card schema: %w", err)
	}

	var candidate rubric.Candidate
	if err := json.Unmarshal([]byte(content), &candidate); err != nil {
		return rubric.Candidate{}, fmt.Errorf("decode score card: %w", err)
	}

	return candidate, nil
}
