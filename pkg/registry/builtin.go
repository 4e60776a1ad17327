package registry

import (
	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/validation"

	ccs "cpn-workers/internal/workers/cpn/calculate-cpn-score"
	ea "cpn-workers/internal/workers/cpn/evaluate-achievements"
	li "cpn-workers/internal/workers/cpn/log-interaction"
	ss "cpn-workers/internal/workers/cpn/share-score"
	oc "cpn-workers/internal/workers/onboarding/cleanup"
	om "cpn-workers/internal/workers/onboarding/migrate"
	rs "cpn-workers/internal/workers/onboarding/resume-session"
	sst "cpn-workers/internal/workers/onboarding/save-step"
)

const (
	CategoryOnboarding = "onboarding"
	CategoryCPN        = "cpn"

	Version = "1.0.0"
)

func schema(s validation.JSONSchema) *validation.JSONSchema { return &s }

func codes(cs ...errors.ErrorCode) []string {
	out := make([]string, 0, len(cs)+1)
	for _, c := range cs {
		out = append(out, string(c))
	}
	return append(out, string(errors.ErrCodeInputValidationFailed))
}

// Builtin is the registry compiled into this binary, in worker start order.
func Builtin() *ActivityRegistry {
	return &ActivityRegistry{
		Version: Version,
		Activities: []Activity{
			{
				ID:          sst.TaskType,
				DisplayName: "Save Onboarding Step",
				Description: "Validates and stores one onboarding step, then advances the current step",
				Category:    CategoryOnboarding,
				TaskType:    sst.TaskType,
				InputSchema: schema(sst.GetInputSchema()),
				ErrorCodes: codes(errors.ErrCodeInvalidStep, errors.ErrCodeStepValidationFailed,
					errors.ErrCodeNavigationBlocked, errors.ErrCodeSessionStoreUnavailable),
				Timeout: "10s",
				Retries: 3,
			},
			{
				ID:          rs.TaskType,
				DisplayName: "Resume Onboarding Session",
				Description: "Cleans up an expired session and returns saved steps, progress and navigation",
				Category:    CategoryOnboarding,
				TaskType:    rs.TaskType,
				InputSchema: schema(rs.GetInputSchema()),
				ErrorCodes:  codes(errors.ErrCodeSessionStoreUnavailable),
				Timeout:     "10s",
				Retries:     3,
			},
			{
				ID:          oc.TaskType,
				DisplayName: "Clean Up Onboarding Session",
				Description: "Runs the cleanup policy or a forced wipe on one session",
				Category:    CategoryOnboarding,
				TaskType:    oc.TaskType,
				InputSchema: schema(oc.GetInputSchema()),
				ErrorCodes:  codes(errors.ErrCodeSessionStoreUnavailable),
				Timeout:     "10s",
				Retries:     3,
			},
			{
				ID:          om.TaskType,
				DisplayName: "Migrate Onboarding Data",
				Description: "Copies a completed onboarding session into the profile and interaction tables",
				Category:    CategoryOnboarding,
				TaskType:    om.TaskType,
				InputSchema: schema(om.GetInputSchema()),
				ErrorCodes: codes(errors.ErrCodeOnboardingIncomplete, errors.ErrCodeStepValidationFailed,
					errors.ErrCodeDatabaseInsertFailed),
				Timeout: "10s",
				Retries: 3,
			},
			{
				ID:          li.TaskType,
				DisplayName: "Log Interaction",
				Description: "Appends one interaction to the user's history",
				Category:    CategoryCPN,
				TaskType:    li.TaskType,
				InputSchema: schema(li.GetInputSchema()),
				ErrorCodes:  codes(errors.ErrCodeDatabaseInsertFailed),
				Timeout:     "10s",
				Retries:     3,
			},
			{
				ID:          ccs.TaskType,
				DisplayName: "Calculate CPN Score",
				Description: "Recomputes the user's score and peer percentile from all interactions",
				Category:    CategoryCPN,
				TaskType:    ccs.TaskType,
				InputSchema: schema(ccs.GetInputSchema()),
				ErrorCodes:  codes(errors.ErrCodeQueryExecutionFailed, errors.ErrCodeDatabaseInsertFailed),
				Timeout:     "30s",
				Retries:     3,
			},
			{
				ID:          ea.TaskType,
				DisplayName: "Evaluate Achievements",
				Description: "Unlocks achievements the user's current stats satisfy",
				Category:    CategoryCPN,
				TaskType:    ea.TaskType,
				InputSchema: schema(ea.GetInputSchema()),
				ErrorCodes: codes(errors.ErrCodeScoreNotFound, errors.ErrCodeQueryExecutionFailed,
					errors.ErrCodeDatabaseInsertFailed),
				Timeout: "10s",
				Retries: 3,
			},
			{
				ID:          ss.TaskType,
				DisplayName: "Share Score",
				Description: "Emails the stored score summary to a recipient",
				Category:    CategoryCPN,
				TaskType:    ss.TaskType,
				InputSchema: schema(ss.GetInputSchema()),
				ErrorCodes:  codes(errors.ErrCodeScoreNotFound, errors.ErrCodeNotificationSendFailed),
				Timeout:     "10s",
				Retries:     3,
			},
		},
	}
}

// TaskTypes lists the builtin task types in start order.
func TaskTypes() []string {
	reg := Builtin()
	out := make([]string, 0, len(reg.Activities))
	for _, a := range reg.Activities {
		out = append(out, a.TaskType)
	}
	return out
}
