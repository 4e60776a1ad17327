package onboarding

// All onboarding keys share KeyPrefix so they can be told apart from unrelated
// keys living in the same store.
const (
	KeyPrefix = "cpn_onboarding_"

	currentStepKey  = KeyPrefix + "current_step"
	sessionStartKey = KeyPrefix + "session_start"
	lastCleanupKey  = KeyPrefix + "last_cleanup"
)

// StepKey is the storage key of a step's slot.
func StepKey(step Step) string {
	return KeyPrefix + string(step)
}

func stepKeys() []string {
	keys := make([]string, len(Steps))
	for i, step := range Steps {
		keys[i] = StepKey(step)
	}
	return keys
}

// knownKeys lists every key this package writes.
func knownKeys() []string {
	return append(stepKeys(), currentStepKey, sessionStartKey, lastCleanupKey)
}
