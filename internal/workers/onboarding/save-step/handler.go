package savestep

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/onboarding"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "onboarding-save-step"

type Handler struct {
	config       *Config
	sessions     *onboarding.SessionFactory
	errorHandler *errors.ErrorHandler
	logger       logger.Logger

	// Deferred cleanups outlive the job that scheduled them and end with the handler.
	lifetime context.Context
	stop     context.CancelFunc
	mu       sync.Mutex
	closed   bool
	pending  sync.WaitGroup
}

func NewHandler(config *Config, sessions *onboarding.SessionFactory, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	lifetime, stop := context.WithCancel(context.Background())
	return &Handler{
		config:       config,
		sessions:     sessions,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		lifetime:     lifetime,
		stop:         stop,
	}
}

// Close cancels pending deferred cleanups and waits for them to exit.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.stop()
	h.pending.Wait()
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

// Execute validates and stores one step, then points the session at the step
// that follows it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	step, err := onboarding.ParseStep(input.Step)
	if err != nil {
		return nil, errors.NewInvalidStepError(input.Step)
	}
	if problems := onboarding.ValidateStep(step, input.Data); len(problems) > 0 {
		return nil, errors.NewStepValidationError(string(step), strings.Join(problems, "; "))
	}

	session := h.sessions.Open(input.SessionID)
	if !session.Steps.CanNavigateToStep(ctx, step) {
		return nil, errors.NewNavigationBlockedError(string(step))
	}

	if err := session.Cleanup.InitSession(ctx); err != nil {
		return nil, errors.NewSessionStoreUnavailableError(err)
	}
	if step == onboarding.StepProfile {
		h.scheduleCleanup(session)
	}
	if err := session.Steps.SaveStep(ctx, step, input.Data); err != nil {
		return nil, errors.NewSessionStoreUnavailableError(err)
	}
	metrics.OnboardingStepsSaved.WithLabelValues(string(step)).Inc()

	current := step
	if next, ok := step.Next(); ok {
		current = next
	}
	if err := session.Steps.SetCurrentStep(ctx, current); err != nil {
		return nil, errors.NewSessionStoreUnavailableError(err)
	}

	h.logger.Debug("onboarding step saved", map[string]interface{}{
		"sessionId":   input.SessionID,
		"step":        string(step),
		"currentStep": string(current),
	})

	return &Output{
		SessionID:   input.SessionID,
		SavedStep:   step,
		CurrentStep: current,
		Progress:    session.Steps.GetProgress(ctx),
		IsComplete:  session.Steps.IsComplete(ctx),
	}, nil
}

// scheduleCleanup runs AutoInit for a session entering onboarding. Its one deferred
// pass drops stale incomplete data left by an earlier visit. It is bound to the
// handler's lifetime because the job context ends before the delay elapses.
func (h *Handler) scheduleCleanup(session *onboarding.Session) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.pending.Add(1)
	h.mu.Unlock()

	if err := session.Cleanup.AutoInit(h.lifetime); err != nil {
		h.pending.Done()
		h.logger.Warn("deferred onboarding cleanup not scheduled", map[string]interface{}{
			"sessionId": session.ID,
			"error":     err.Error(),
		})
		return
	}
	go func() {
		defer h.pending.Done()
		session.Cleanup.Wait()
	}()
}

func parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("decode job variables: %v", err))
	}
	return &input, nil
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
