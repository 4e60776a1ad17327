package onboarding

import (
	"fmt"

	"cpn-workers/internal/common/validation"
)

const profileSchema = `{
	"type": "object",
	"required": ["firstName", "age", "rating"],
	"properties": {
		"firstName": {"type": "string", "minLength": 1, "maxLength": 50},
		"age": {"type": "integer", "minimum": 18, "maximum": 120},
		"ethnicity": {
			"type": "string",
			"enum": ["", "asian", "black", "hispanic", "white", "middle_eastern",
				"native_american", "pacific_islander", "mixed", "other"]
		},
		"rating": {"type": "number", "minimum": 5, "maximum": 10, "multipleOf": 0.5}
	}
}`

const dataEntrySchema = `{
	"type": "object",
	"required": ["date", "cost", "time", "nuts"],
	"properties": {
		"date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
		"cost": {"type": "number", "minimum": 0},
		"time": {"type": "integer", "minimum": 1},
		"nuts": {"type": "integer", "minimum": 0},
		"notes": {"type": "string", "maxLength": 1000}
	}
}`

const resultSchema = `{
	"type": "object",
	"required": ["score"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"categoryScores": {
			"type": "object",
			"properties": {
				"cost_efficiency": {"type": "number", "minimum": 0, "maximum": 100},
				"time_management": {"type": "number", "minimum": 0, "maximum": 100},
				"success_rate": {"type": "number", "minimum": 0, "maximum": 100}
			}
		},
		"peerPercentile": {"type": "integer", "minimum": 0, "maximum": 100},
		"calculatedAt": {"type": "string"},
		"metadata": {"type": "object"}
	}
}`

var stepSchemas = map[Step]*validation.DocumentSchema{
	StepProfile:   validation.MustCompileDocumentSchema("onboarding.profile", profileSchema),
	StepDataEntry: validation.MustCompileDocumentSchema("onboarding.dataEntry", dataEntrySchema),
	StepResult:    validation.MustCompileDocumentSchema("onboarding.result", resultSchema),
}

// ValidateStep checks a raw step payload against the step's schema.
// It returns nil when the payload is valid.
func ValidateStep(step Step, raw []byte) []string {
	schema, ok := stepSchemas[step]
	if !ok {
		return []string{fmt.Sprintf("unknown onboarding step %q", step)}
	}
	return schema.ValidateBytes(raw)
}

// ValidateStepValue is ValidateStep for an already decoded payload.
func ValidateStepValue(step Step, v interface{}) []string {
	schema, ok := stepSchemas[step]
	if !ok {
		return []string{fmt.Sprintf("unknown onboarding step %q", step)}
	}
	return schema.ValidateValue(v)
}
