package evaluateachievements

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cpn-workers/internal/achievements"
	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/validation"
	"cpn-workers/internal/repository"
	"cpn-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-achievements"

	EventAchievementUnlocked = "achievement.unlocked"
)

// Publisher fans unlock events out to subscribers. SNS in production.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, payload interface{}) (string, error)
}

type Dependencies struct {
	Interactions *repository.InteractionRepository
	Scores       *repository.ScoreRepository
	Achievements *repository.AchievementRepository
	// Events is nil when notifications are disabled.
	Events  Publisher
	Scoring scoring.Options
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

// Execute unlocks every catalog achievement the user's current stats satisfy.
// Running it twice unlocks nothing the second time.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	score, err := h.deps.Scores.Get(ctx, input.UserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewScoreNotFoundError(input.UserID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get score", err)
	}

	interactions, err := h.deps.Interactions.ListByUser(ctx, input.UserID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list interactions", err)
	}
	catalog, err := h.deps.Achievements.Catalog(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("achievement catalog", err)
	}
	held, err := h.deps.Achievements.Unlocked(ctx, input.UserID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("unlocked achievements", err)
	}

	stats := achievements.StatsFrom(scoring.Calculate(interactions, h.deps.Scoring), score.PeerPercentile)
	ev := achievements.Evaluate(catalog, held, stats)

	out := &Output{UserID: input.UserID, NewlyUnlocked: []UnlockedAchievement{}}
	for id, invalid := range ev.Invalid {
		h.logger.Warn("achievement skipped", map[string]interface{}{
			"achievementId": id,
			"error":         invalid.Error(),
		})
		out.Skipped = append(out.Skipped, id)
	}
	sort.Strings(out.Skipped)

	now := h.now()
	for _, def := range ev.Unlocked {
		isNew, err := h.deps.Achievements.Unlock(ctx, input.UserID, def.ID, now)
		if err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
		if !isNew {
			continue
		}
		metrics.AchievementsUnlocked.WithLabelValues(def.Trigger).Inc()

		unlocked := UnlockedAchievement{
			ID:         def.ID,
			Name:       def.Name,
			Trigger:    def.Trigger,
			Points:     def.Points,
			UnlockedAt: now.Format(time.RFC3339),
		}
		out.NewlyUnlocked = append(out.NewlyUnlocked, unlocked)
		out.NewPoints += def.Points

		if h.notify(ctx, input.UserID, unlocked) {
			out.Notified++
		}
	}

	h.logger.Info("achievements evaluated", map[string]interface{}{
		"userId":   input.UserID,
		"unlocked": len(out.NewlyUnlocked),
		"skipped":  len(out.Skipped),
	})
	return out, nil
}

// notify is best effort. The unlock is already committed.
func (h *Handler) notify(ctx context.Context, userID string, a UnlockedAchievement) bool {
	if h.deps.Events == nil {
		return false
	}
	_, err := h.deps.Events.PublishEvent(ctx, EventAchievementUnlocked, map[string]interface{}{
		"userId":      userID,
		"achievement": a,
	})
	if err != nil {
		h.logger.Warn("achievement event not published", map[string]interface{}{
			"userId":        userID,
			"achievementId": a.ID,
			"error":         errors.NewNotificationSendFailedError("sns", err).Details,
		})
		return false
	}
	return true
}

func parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	userID, _ := variables["userId"].(string)
	return &Input{UserID: userID}, nil
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
