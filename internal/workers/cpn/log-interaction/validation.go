package loginteraction

import "cpn-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "date", "cost", "timeMinutes", "nuts"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(128),
			},
			"date": {
				Type:        "string",
				Description: "Encounter date, YYYY-MM-DD",
				Pattern:     validation.StringPtr(`^\d{4}-\d{2}-\d{2}$`),
			},
			"cost": {
				Type:    "number",
				Minimum: validation.FloatPtr(0),
			},
			"timeMinutes": {
				Type:    "integer",
				Minimum: validation.FloatPtr(0),
				Maximum: validation.FloatPtr(24 * 60),
			},
			"nuts": {
				Type:    "integer",
				Minimum: validation.FloatPtr(0),
			},
			"notes": {
				Type:      "string",
				MaxLength: validation.IntPtr(1000),
			},
		},
		AdditionalProperties: true,
	}
}
