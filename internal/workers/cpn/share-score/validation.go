package sharescore

import "cpn-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "recipientEmail"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(128),
			},
			"recipientEmail": {
				Type:      "string",
				Pattern:   validation.StringPtr(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
				MaxLength: validation.IntPtr(254),
			},
			"senderName": {
				Type:      "string",
				MaxLength: validation.IntPtr(100),
			},
			"message": {
				Type:        "string",
				Description: "Personal note prepended to the summary",
				MaxLength:   validation.IntPtr(500),
			},
		},
		AdditionalProperties: true,
	}
}
