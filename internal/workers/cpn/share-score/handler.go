package sharescore

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"cpn-workers/internal/common/aws"
	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "share-score"

	StatusSent = "SENT"
)

// Mailer delivers one email and returns the provider message ID.
type Mailer interface {
	Send(ctx context.Context, email aws.Email) (string, error)
}

type Handler struct {
	config       *Config
	scores       *repository.ScoreRepository
	mailer       Mailer
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, scores *repository.ScoreRepository, mailer Mailer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scores:       scores,
		mailer:       mailer,
		now:          func() time.Time { return time.Now().UTC() },
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	score, err := h.scores.Get(ctx, input.UserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewScoreNotFoundError(input.UserID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get score", err)
	}

	email, err := buildEmail(input, score)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	messageID, err := h.mailer.Send(ctx, email)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("ses", err)
	}

	h.logger.Info("score shared", map[string]interface{}{
		"userId":    input.UserID,
		"messageId": messageID,
	})
	return &Output{
		UserID:    input.UserID,
		MessageID: messageID,
		Status:    StatusSent,
		Score:     score.Score,
		SharedAt:  h.now().Format(time.RFC3339),
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
	input.RecipientEmail = strings.TrimSpace(input.RecipientEmail)
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
