package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"cpn-workers/internal/common/config"
	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"rpc error: code = ResourceExhausted desc = resource exhausted", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"rpc error: code = InvalidArgument desc = bad variables", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	transient := mapZeebeError(stderrors.New("connection refused"), "topology", 2)
	assert.Equal(t, errors.ErrCodeWorkflowEngineUnavailable, transient.Code)
	assert.True(t, transient.Retryable)
	assert.Equal(t, "topology", transient.Metadata["operation"])
	assert.Contains(t, transient.Details, "after 3 attempts")

	permanent := mapZeebeError(stderrors.New("job not found"), "complete", 0)
	assert.Equal(t, errors.ErrCodeInternal, permanent.Code)
	assert.False(t, permanent.Retryable)
	assert.NotContains(t, permanent.Details, "attempts")
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		got, err := fastClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, stderrors.New("unavailable")
			}
			return "ok", nil
		}, "topology")

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		_, err := fastClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("invalid argument")
		}, "publish")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, errors.ErrCodeInternal, errors.Normalize(err).Code)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := fastClient(2).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("connection reset by peer")
		}, "topology")

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, errors.ErrCodeWorkflowEngineUnavailable, errors.Normalize(err).Code)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		c := fastClient(5)
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			return nil, stderrors.New("timeout")
		}, "topology")

		require.Error(t, err)
		assert.ErrorContains(t, err, "WORKFLOW_ENGINE_UNAVAILABLE")
	})
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(config.CamundaConfig{BrokerAddress: "zeebe:26500", Plaintext: true, RequestTimeout: 5000})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)
}

func TestWorker_InstrumentCallsHandler(t *testing.T) {
	var seen int64
	handler := JobHandlerFunc(func(_ worker.JobClient, job entities.Job) {
		seen = job.GetKey()
	})
	w := NewWorker(nil, "log-interaction", config.WorkerConfig{Enabled: true}, handler, nil, logger.NewTestLogger(t))

	w.instrument(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42}})
	assert.Equal(t, int64(42), seen)
}

func TestWorker_DisabledStartIsNoop(t *testing.T) {
	w := NewWorker(nil, "share-score", config.WorkerConfig{Enabled: false}, JobHandlerFunc(func(worker.JobClient, entities.Job) {}), nil, logger.NewTestLogger(t))
	assert.NotPanics(t, w.Start)
	assert.NotPanics(t, w.Stop)
}
