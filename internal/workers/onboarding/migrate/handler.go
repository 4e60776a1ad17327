package migrate

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/models"
	"cpn-workers/internal/onboarding"
	"cpn-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "onboarding-migrate"

const dataEntryDateLayout = "2006-01-02"

type Handler struct {
	config       *Config
	sessions     *onboarding.SessionFactory
	profiles     *repository.ProfileRepository
	interactions *repository.InteractionRepository
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(
	config *Config,
	sessions *onboarding.SessionFactory,
	profiles *repository.ProfileRepository,
	interactions *repository.InteractionRepository,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     sessions,
		profiles:     profiles,
		interactions: interactions,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute copies a finished onboarding session into durable storage and then
// removes the session. The interaction ID is derived from the session, so a
// retried job does not log the encounter twice.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	session := h.sessions.Open(input.SessionID)

	var (
		profile   onboarding.Profile
		dataEntry onboarding.DataEntry
		missing   []string
	)
	if !session.Steps.LoadStepInto(ctx, onboarding.StepProfile, &profile) {
		missing = append(missing, string(onboarding.StepProfile))
	}
	if !session.Steps.LoadStepInto(ctx, onboarding.StepDataEntry, &dataEntry) {
		missing = append(missing, string(onboarding.StepDataEntry))
	}
	// Both slots gone means either a fresh session or one a previous delivery already cleared.
	if len(missing) == 2 {
		out, err := h.previouslyMigrated(ctx, input)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewOnboardingIncompleteError(missing)
	}

	date, err := time.Parse(dataEntryDateLayout, dataEntry.Date)
	if err != nil {
		return nil, errors.NewStepValidationError(string(onboarding.StepDataEntry), fmt.Sprintf("date: %v", err))
	}

	if err := h.profiles.Upsert(ctx, &models.UserProfile{
		UserID:    input.UserID,
		FirstName: profile.FirstName,
		Age:       profile.Age,
		Ethnicity: profile.Ethnicity,
		Rating:    profile.Rating,
	}); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	out := &Output{UserID: input.UserID, InteractionID: interactionID(input.SessionID)}
	err = h.interactions.Insert(ctx, &models.Interaction{
		ID:          out.InteractionID,
		UserID:      input.UserID,
		Date:        date,
		Cost:        dataEntry.Cost,
		TimeMinutes: dataEntry.Time,
		Nuts:        dataEntry.Nuts,
		Notes:       dataEntry.Notes,
	})
	switch {
	case stderrors.Is(err, repository.ErrDuplicate):
		out.AlreadyMigrated = true
	case err != nil:
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	if err := session.Cleanup.ForceCleanup(ctx); err != nil {
		h.logger.Warn("onboarding session not cleared after migration", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     err.Error(),
		})
	} else {
		out.SessionCleared = true
	}

	h.logger.Info("onboarding migrated", map[string]interface{}{
		"sessionId":       input.SessionID,
		"userId":          input.UserID,
		"alreadyMigrated": out.AlreadyMigrated,
	})
	return out, nil
}

// previouslyMigrated handles a redelivered job whose first run already cleared the
// session. It returns nil when the session was never migrated.
func (h *Handler) previouslyMigrated(ctx context.Context, input *Input) (*Output, error) {
	id := interactionID(input.SessionID)
	found, err := h.interactions.Exists(ctx, input.UserID, id)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("interaction exists", err)
	}
	if !found {
		return nil, nil
	}
	h.logger.Info("onboarding already migrated", map[string]interface{}{
		"sessionId": input.SessionID,
		"userId":    input.UserID,
	})
	return &Output{UserID: input.UserID, InteractionID: id, AlreadyMigrated: true, SessionCleared: true}, nil
}

func interactionID(sessionID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("cpn:onboarding:"+sessionID)).String()
}

func parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return &Input{
		SessionID: variables["sessionId"].(string),
		UserID:    variables["userId"].(string),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		h.failJob(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}
