package calculatecpnscore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/observability"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/models"
	"cpn-workers/internal/onboarding"
	"cpn-workers/internal/repository"
	"cpn-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const TaskType = "calculate-cpn-score"

// ScoreIndexer mirrors a stored score into the search index.
type ScoreIndexer interface {
	Index(ctx context.Context, score *models.CpnScore) error
}

type Dependencies struct {
	Interactions *repository.InteractionRepository
	Scores       *repository.ScoreRepository
	Peers        repository.PeerSource
	// Index and Sessions are optional.
	Index    ScoreIndexer
	Sessions *onboarding.SessionFactory
}

type Handler struct {
	config       *Config
	deps         Dependencies
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		deps:         deps,
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

// Execute recomputes the user's score from scratch and overwrites the stored one.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := observability.StartSpan(ctx, "cpn.calculate",
		attribute.String("user.id", input.UserID),
		attribute.String("team.id", input.TeamID))
	defer span.End()

	var (
		interactions []models.Interaction
		population   []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		interactions, err = h.deps.Interactions.ListByUser(gctx, input.UserID)
		if err != nil {
			return errors.NewQueryExecutionFailedError("list interactions", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		population, err = h.deps.Peers.PeerScores(gctx, input.UserID, input.TeamID)
		if err != nil {
			return errors.NewQueryExecutionFailedError("peer scores", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	result := scoring.Calculate(interactions, h.config.Scoring)
	peers := scoring.ComparePeers(result.Score, population)
	span.SetAttributes(
		attribute.Int("interactions", len(interactions)),
		attribute.Int("peers", peers.TotalUsers),
		attribute.Float64("score", result.Score),
	)

	score := &models.CpnScore{
		UserID:         input.UserID,
		TeamID:         input.TeamID,
		Score:          result.Score,
		CategoryScores: result.CategoryScores,
		PeerPercentile: peers.Percentile,
	}
	if err := h.deps.Scores.Upsert(ctx, score); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	metrics.CpnScoreValue.Observe(score.Score)

	calculatedAt := score.UpdatedAt
	if calculatedAt.IsZero() {
		calculatedAt = h.now()
	}

	out := &Output{
		UserID:         input.UserID,
		Score:          score.Score,
		CategoryScores: score.CategoryScores,
		PeerPercentile: score.PeerPercentile,
		PeerComparison: peers,
		Metrics:        result.Metrics,
		CalculatedAt:   calculatedAt.Format(time.RFC3339),
	}

	out.Indexed = h.index(ctx, score)
	h.storeResultStep(ctx, input.SessionID, out)
	return out, nil
}

// index is best effort: Postgres is the source of truth.
func (h *Handler) index(ctx context.Context, score *models.CpnScore) bool {
	if h.deps.Index == nil {
		return false
	}
	if err := h.deps.Index.Index(ctx, score); err != nil {
		h.logger.Warn("score not indexed", map[string]interface{}{
			"userId": score.UserID,
			"error":  errors.NewScoreIndexFailedError(err).Details,
		})
		return false
	}
	return true
}

// storeResultStep fills the onboarding result step when the score was requested
// from an onboarding session.
func (h *Handler) storeResultStep(ctx context.Context, sessionID string, out *Output) {
	if sessionID == "" || h.deps.Sessions == nil {
		return
	}
	result := onboarding.Result{
		Score:          out.Score,
		CategoryScores: out.CategoryScores,
		PeerPercentile: out.PeerPercentile,
		CalculatedAt:   out.CalculatedAt,
	}
	if problems := onboarding.ValidateStepValue(onboarding.StepResult, result); len(problems) > 0 {
		h.logger.Warn("onboarding result step rejected", map[string]interface{}{
			"sessionId": sessionID,
			"problems":  problems,
		})
		return
	}
	session := h.deps.Sessions.Open(sessionID)
	if err := session.Steps.SaveStep(ctx, onboarding.StepResult, result); err != nil {
		h.logger.Warn("onboarding result step not saved", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return
	}
	metrics.OnboardingStepsSaved.WithLabelValues(string(onboarding.StepResult)).Inc()
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
