package cleanup

import "cpn-workers/internal/onboarding"

type Input struct {
	SessionID              string `json:"sessionId"`
	OnlyIncomplete         bool   `json:"onlyIncomplete"`
	PreserveCurrentSession bool   `json:"preserveCurrentSession"`
	Force                  bool   `json:"force"`
}

type Output struct {
	SessionID string                   `json:"sessionId"`
	Result    onboarding.CleanupResult `json:"cleanupResult"`
	Status    onboarding.CleanupStatus `json:"cleanupStatus"`
}

// ReasonForced is reported for cleanups that bypassed the expiry and rate checks.
const ReasonForced = "Forced cleanup"
