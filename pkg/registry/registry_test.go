package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_IsValid(t *testing.T) {
	reg := Builtin()
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 8)

	for _, a := range reg.Activities {
		assert.Equal(t, a.ID, a.TaskType)
		require.NotNil(t, a.InputSchema, a.ID)
		assert.Equal(t, "object", a.InputSchema.Type, a.ID)
		assert.True(t, a.InputSchema.AdditionalProperties, "%s must tolerate other process variables", a.ID)
		assert.Contains(t, a.ErrorCodes, "INPUT_VALIDATION_FAILED")
	}
}

func TestTaskTypes_StartOrder(t *testing.T) {
	assert.Equal(t, []string{
		"onboarding-save-step",
		"onboarding-resume-session",
		"onboarding-cleanup",
		"onboarding-migrate",
		"log-interaction",
		"calculate-cpn-score",
		"evaluate-achievements",
		"share-score",
	}, TaskTypes())
}

func TestValidate_Errors(t *testing.T) {
	valid := Activity{ID: "a", DisplayName: "A", Category: "cpn", TaskType: "a"}

	tests := []struct {
		name string
		reg  ActivityRegistry
		want string
	}{
		{"empty", ActivityRegistry{}, "no activities"},
		{"duplicate id", ActivityRegistry{Activities: []Activity{valid, valid}}, "duplicate activity ID"},
		{"missing task type", ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", Category: "cpn"}}}, "TaskType"},
		{"duplicate task type", ActivityRegistry{Activities: []Activity{valid, {ID: "b", DisplayName: "B", Category: "cpn", TaskType: "a"}}}, "duplicate task type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.reg.Validate(), tt.want)
		})
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	require.NoError(t, SaveRegistry(Builtin(), path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())

	missing, unexpected := Diff(Builtin(), loaded)
	assert.Empty(t, missing)
	assert.Empty(t, unexpected)

	a, ok := loaded.Find("share-score")
	require.True(t, ok)
	assert.Equal(t, []string{"userId", "recipientEmail"}, a.InputSchema.Required)
}

func TestDiff(t *testing.T) {
	got := &ActivityRegistry{Activities: []Activity{{TaskType: "log-interaction"}, {TaskType: "legacy-task"}}}

	missing, unexpected := Diff(Builtin(), got)
	assert.Len(t, missing, 7)
	assert.NotContains(t, missing, "log-interaction")
	assert.Equal(t, []string{"legacy-task"}, unexpected)
}
