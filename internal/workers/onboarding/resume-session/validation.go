package resumesession

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
		},
		AdditionalProperties: true,
	}
}
