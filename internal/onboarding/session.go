package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"cpn-workers/internal/common/logger"
)

// SessionManager stores the three onboarding slots and the current-step pointer.
// It performs no validation; callers pass data that was validated at the boundary.
type SessionManager struct {
	store  Store
	logger logger.Logger
}

func NewSessionManager(store Store, log logger.Logger) *SessionManager {
	return &SessionManager{store: store, logger: log}
}

// SaveStep serializes data under the step's key, replacing any previous value.
// An empty object is a valid payload and marks the step complete.
func (m *SessionManager) SaveStep(ctx context.Context, step Step, data interface{}) error {
	if !step.Valid() {
		return fmt.Errorf("save step: unknown step %q", step)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("save step %s: %w", step, err)
	}
	return m.store.Set(ctx, StepKey(step), string(raw))
}

// LoadStep returns the raw JSON stored for step, or nil when it is missing,
// null or not valid JSON.
func (m *SessionManager) LoadStep(ctx context.Context, step Step) json.RawMessage {
	raw, ok := m.store.Get(ctx, StepKey(step))
	if !ok {
		return nil
	}
	b := []byte(raw)
	if !json.Valid(b) {
		m.logger.Warn("discarding corrupt onboarding step", map[string]interface{}{"step": string(step)})
		return nil
	}
	if isNullJSON(b) {
		return nil
	}
	return json.RawMessage(b)
}

// LoadStepInto decodes the step into dst and reports whether anything was loaded.
func (m *SessionManager) LoadStepInto(ctx context.Context, step Step, dst interface{}) bool {
	raw := m.LoadStep(ctx, step)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		m.logger.Warn("onboarding step does not match its type", map[string]interface{}{
			"step":  string(step),
			"error": err.Error(),
		})
		return false
	}
	return true
}

// GetAllSteps loads every slot independently.
func (m *SessionManager) GetAllSteps(ctx context.Context) Data {
	var data Data

	var profile Profile
	if m.LoadStepInto(ctx, StepProfile, &profile) {
		data.Profile = &profile
	}
	var entry DataEntry
	if m.LoadStepInto(ctx, StepDataEntry, &entry) {
		data.DataEntry = &entry
	}
	var result Result
	if m.LoadStepInto(ctx, StepResult, &result) {
		data.Result = &result
	}
	return data
}

func (m *SessionManager) ClearStep(ctx context.Context, step Step) error {
	return m.store.Remove(ctx, StepKey(step))
}

// ClearAll removes the step slots and the current-step pointer. Session
// timestamps and keys outside KeyPrefix are left alone.
func (m *SessionManager) ClearAll(ctx context.Context) error {
	for _, key := range append(stepKeys(), currentStepKey) {
		if err := m.store.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// GetCurrentStep defaults to the first step when the pointer is unset or unknown.
func (m *SessionManager) GetCurrentStep(ctx context.Context) Step {
	raw, ok := m.store.Get(ctx, currentStepKey)
	if !ok {
		return StepProfile
	}
	step := Step(raw)
	if !step.Valid() {
		return StepProfile
	}
	return step
}

func (m *SessionManager) SetCurrentStep(ctx context.Context, step Step) error {
	if !step.Valid() {
		return fmt.Errorf("set current step: unknown step %q", step)
	}
	return m.store.Set(ctx, currentStepKey, string(step))
}

// IsStepComplete is true iff the step's slot holds data.
func (m *SessionManager) IsStepComplete(ctx context.Context, step Step) bool {
	return m.LoadStep(ctx, step) != nil
}

// IsComplete is true when every slot holds data.
func (m *SessionManager) IsComplete(ctx context.Context) bool {
	for _, step := range Steps {
		if !m.IsStepComplete(ctx, step) {
			return false
		}
	}
	return true
}

// GetProgress reports which slots are filled, in step order. The completed set
// need not be a prefix of Steps.
func (m *SessionManager) GetProgress(ctx context.Context) Progress {
	completed := make([]Step, 0, TotalSteps)
	for _, step := range Steps {
		if m.IsStepComplete(ctx, step) {
			completed = append(completed, step)
		}
	}
	return Progress{
		CurrentStep:     m.GetCurrentStep(ctx),
		CompletedSteps:  completed,
		TotalSteps:      TotalSteps,
		PercentComplete: int(math.Round(100 * float64(len(completed)) / TotalSteps)),
	}
}

// CanNavigateToStep is true for the first step, or when every earlier step is complete.
func (m *SessionManager) CanNavigateToStep(ctx context.Context, step Step) bool {
	idx := step.Index()
	if idx < 0 {
		return false
	}
	for _, earlier := range Steps[:idx] {
		if !m.IsStepComplete(ctx, earlier) {
			return false
		}
	}
	return true
}

// NextStep returns the step after the current one.
func (m *SessionManager) NextStep(ctx context.Context) (Step, bool) {
	return m.GetCurrentStep(ctx).Next()
}

// PreviousStep returns the step before the current one.
func (m *SessionManager) PreviousStep(ctx context.Context) (Step, bool) {
	return m.GetCurrentStep(ctx).Previous()
}

// isNullJSON reports whether b is the JSON literal null, ignoring surrounding
// whitespace. A stored null counts as an absent step.
func isNullJSON(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// isEmptyObject reports whether b is the JSON object {}.
func isEmptyObject(b []byte) bool {
	var fields map[string]json.RawMessage
	return json.Unmarshal(b, &fields) == nil && fields != nil && len(fields) == 0
}
