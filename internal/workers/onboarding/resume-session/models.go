package resumesession

import "cpn-workers/internal/onboarding"

type Input struct {
	SessionID string `json:"sessionId"`
}

type Navigation struct {
	NextStep     onboarding.Step `json:"nextStep,omitempty"`
	PreviousStep onboarding.Step `json:"previousStep,omitempty"`
	CanGoNext    bool            `json:"canGoNext"`
	CanGoBack    bool            `json:"canGoBack"`
}

type Output struct {
	SessionID     string                     `json:"sessionId"`
	Steps         onboarding.Data            `json:"onboardingData"`
	Progress      onboarding.Progress        `json:"progress"`
	Navigation    Navigation                 `json:"navigation"`
	Cleanup       onboarding.CleanupResult   `json:"cleanup"`
	CleanupStatus onboarding.CleanupStatus   `json:"cleanupStatus"`
	Integrity     onboarding.IntegrityReport `json:"integrity"`
}
