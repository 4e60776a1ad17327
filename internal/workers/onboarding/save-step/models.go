package savestep

import (
	"encoding/json"

	"cpn-workers/internal/onboarding"
)

type Input struct {
	SessionID string          `json:"sessionId"`
	Step      string          `json:"step"`
	Data      json.RawMessage `json:"data"`
}

type Output struct {
	SessionID   string              `json:"sessionId"`
	SavedStep   onboarding.Step     `json:"savedStep"`
	CurrentStep onboarding.Step     `json:"currentStep"`
	Progress    onboarding.Progress `json:"progress"`
	IsComplete  bool                `json:"onboardingComplete"`
}
