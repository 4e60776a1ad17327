package loginteraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/models"
	"cpn-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "log-interaction"

const dateLayout = "2006-01-02"

type Handler struct {
	config       *Config
	interactions *repository.InteractionRepository
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, interactions *repository.InteractionRepository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

// Execute appends one interaction. Existing rows are never touched.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("date: %v", err))
	}

	interaction := &models.Interaction{
		UserID:      input.UserID,
		Date:        date,
		Cost:        input.Cost,
		TimeMinutes: input.TimeMinutes,
		Nuts:        input.Nuts,
		Notes:       input.Notes,
	}
	if err := h.interactions.Insert(ctx, interaction); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	return &Output{
		InteractionID: interaction.ID,
		UserID:        interaction.UserID,
		LoggedAt:      interaction.CreatedAt.Format(time.RFC3339),
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
