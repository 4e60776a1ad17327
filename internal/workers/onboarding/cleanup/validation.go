package cleanup

import "cpn-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"sessionId"},
		Properties: map[string]validation.Property{
			"sessionId": {
				Type:        "string",
				Description: "Onboarding session identifier",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(128),
			},
			"onlyIncomplete": {
				Type:        "boolean",
				Description: "Keep sessions whose steps are all complete",
			},
			"preserveCurrentSession": {
				Type:        "boolean",
				Description: "Remove step data but keep the session timestamps",
			},
			"force": {
				Type:        "boolean",
				Description: "Remove everything regardless of age",
			},
		},
		AdditionalProperties: true,
	}
}
