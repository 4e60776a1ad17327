package resumesession

import (
	"context"
	"fmt"
	"strings"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/onboarding"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "onboarding-resume-session"

// resumeCleanup drops stale incomplete data but keeps the user's place.
var resumeCleanup = onboarding.CleanupOptions{OnlyIncomplete: true, PreserveCurrentSession: true}

type Handler struct {
	config       *Config
	sessions     *onboarding.SessionFactory
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sessions *onboarding.SessionFactory, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     sessions,
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

// Execute runs an opportunistic cleanup and returns everything needed to put the
// user back where they left off.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	session := h.sessions.Open(input.SessionID)

	cleanup, err := session.Cleanup.Cleanup(ctx, resumeCleanup)
	if err != nil {
		return nil, errors.NewSessionStoreUnavailableError(err)
	}

	nav := Navigation{}
	if next, ok := session.Steps.NextStep(ctx); ok {
		nav.NextStep = next
		nav.CanGoNext = session.Steps.CanNavigateToStep(ctx, next)
	}
	if prev, ok := session.Steps.PreviousStep(ctx); ok {
		nav.PreviousStep = prev
		nav.CanGoBack = true
	}

	integrity := session.Cleanup.ValidateSessionIntegrity(ctx)
	if !integrity.IsValid {
		h.logger.Warn("resumed session failed integrity check", map[string]interface{}{
			"sessionId": input.SessionID,
			"errors":    integrity.Errors,
		})
	}

	return &Output{
		SessionID:     input.SessionID,
		Steps:         session.Steps.GetAllSteps(ctx),
		Progress:      session.Steps.GetProgress(ctx),
		Navigation:    nav,
		Cleanup:       cleanup,
		CleanupStatus: session.Cleanup.CleanupStatus(ctx),
		Integrity:     integrity,
	}, nil
}

func parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return &Input{SessionID: variables["sessionId"].(string)}, nil
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
