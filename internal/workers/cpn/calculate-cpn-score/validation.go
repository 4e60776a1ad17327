package calculatecpnscore

import "cpn-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(128),
			},
			"teamId": {
				Type:        "string",
				Description: "Restricts the peer population to one team",
				MaxLength:   validation.IntPtr(128),
			},
			"sessionId": {
				Type:        "string",
				Description: "Onboarding session that receives the result step",
				MaxLength:   validation.IntPtr(128),
			},
		},
		AdditionalProperties: true,
	}
}
