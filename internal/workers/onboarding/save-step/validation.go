package savestep

import "cpn-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"sessionId", "step", "data"},
		Properties: map[string]validation.Property{
			"sessionId": {
				Type:        "string",
				Description: "Onboarding session identifier",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(128),
			},
			"step": {
				Type:        "string",
				Description: "Step being saved",
				Enum:        []string{"profile", "dataEntry", "result"},
			},
			"data": {
				Type:        "object",
				Description: "Step payload",
			},
		},
		AdditionalProperties: true,
	}
}
