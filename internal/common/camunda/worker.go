// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cpn-workers/internal/common/config"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
	"cpn-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobHandlerFunc adapts a plain function to JobHandler.
type JobHandlerFunc func(client worker.JobClient, job entities.Job)

func (f JobHandlerFunc) Handle(client worker.JobClient, job entities.Job) { f(client, job) }

// Worker binds one task type to a handler. The Zeebe client is shared and is
// not closed by Stop.
type Worker struct {
	client   zbc.Client
	taskType string
	cfg      config.WorkerConfig
	handler  JobHandler
	obs      *observability.Observability
	logger   logger.Logger

	mu     sync.Mutex
	worker worker.JobWorker
}

func NewWorker(
	client zbc.Client,
	taskType string,
	cfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *Worker {
	return &Worker{
		client:   client,
		taskType: taskType,
		cfg:      cfg,
		handler:  handler,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
	}
}

// instrument wraps the handler with the shared job gauge, histogram and span.
func (w *Worker) instrument(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(w.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(w.taskType).Dec()

	ctx, span := observability.StartSpan(context.Background(), "job "+w.taskType)
	defer span.End()

	w.handler.Handle(client, job)

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(w.taskType).Observe(elapsed.Seconds())
	w.obs.RecordJob(ctx, w.taskType, elapsed)
}

// Start opens the job worker. Disabled or already started workers are left alone.
func (w *Worker) Start() {
	if !w.cfg.Enabled {
		w.logger.Info("worker disabled", nil)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.worker != nil {
		return
	}

	cmd := w.client.NewJobWorker().
		JobType(w.taskType).
		Handler(w.instrument).
		Name(fmt.Sprintf("%s-worker", w.taskType))
	if w.cfg.MaxJobsActive > 0 {
		cmd = cmd.MaxJobsActive(w.cfg.MaxJobsActive)
	}
	if w.cfg.Timeout > 0 {
		cmd = cmd.Timeout(time.Duration(w.cfg.Timeout) * time.Millisecond)
	}
	w.worker = cmd.Open()

	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": w.cfg.MaxJobsActive,
		"timeout_ms":    w.cfg.Timeout,
	})
}

// Stop closes the job worker, waits for in-flight jobs, then closes the handler
// when it has a Close method.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.worker == nil {
		return
	}
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
	w.worker = nil

	if c, ok := w.handler.(interface{ Close() }); ok {
		c.Close()
	}
}
