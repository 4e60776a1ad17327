package onboarding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStep(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		payload string
		valid   bool
	}{
		{name: "profile ok", step: StepProfile, payload: `{"firstName":"Alex","age":29,"rating":7.5}`, valid: true},
		{name: "profile under age", step: StepProfile, payload: `{"firstName":"Alex","age":17,"rating":7}`, valid: false},
		{name: "profile rating off grid", step: StepProfile, payload: `{"firstName":"Alex","age":29,"rating":7.3}`, valid: false},
		{name: "profile missing name", step: StepProfile, payload: `{"age":29,"rating":7}`, valid: false},
		{name: "data entry ok", step: StepDataEntry, payload: `{"date":"2024-02-28","cost":0,"time":30,"nuts":0}`, valid: true},
		{name: "data entry fractional nuts", step: StepDataEntry, payload: `{"date":"2024-02-28","cost":10,"time":30,"nuts":1.5}`, valid: false},
		{name: "data entry zero time", step: StepDataEntry, payload: `{"date":"2024-02-28","cost":10,"time":0,"nuts":1}`, valid: false},
		{name: "result ok", step: StepResult, payload: `{"score":76,"peerPercentile":0}`, valid: true},
		{name: "result out of range", step: StepResult, payload: `{"score":101}`, valid: false},
		{name: "not json", step: StepResult, payload: `{score`, valid: false},
		{name: "unknown step", step: Step("welcome"), payload: `{}`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateStep(tt.step, []byte(tt.payload))
			if tt.valid {
				assert.Empty(t, problems)
			} else {
				assert.NotEmpty(t, problems)
			}
		})
	}
}

func TestValidateStepValue_DecodedJobVariables(t *testing.T) {
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-28","cost":12.5,"time":45,"nuts":1}`), &vars))

	assert.Empty(t, ValidateStepValue(StepDataEntry, vars))

	vars["date"] = "yesterday"
	problems := ValidateStepValue(StepDataEntry, vars)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "date")
}
