package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/internal/orchestrator"
	"github.com/luxequeer/deployer/internal/repository"
	"github.com/luxequeer/deployer/internal/services"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by tasks)
	if _, err := logger.Init("info", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context) orchestrator.Result {
	return m.Called(ctx).Get(0).(orchestrator.Result)
}

type mockDeploymentService struct {
	mock.Mock
}

func (m *mockDeploymentService) CreateDeployment(ctx context.Context, input services.CreateDeploymentInput) (*models.Deployment, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*models.Deployment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeploymentService) GetDeployment(ctx context.Context, id uuid.UUID) (*models.Deployment, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Deployment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeploymentService) ListDeployments(ctx context.Context, f repository.DeploymentFilter) ([]models.Deployment, error) {
	args := m.Called(ctx, f)
	if v := args.Get(0); v != nil {
		return v.([]models.Deployment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeploymentService) GetDeploymentLogs(ctx context.Context, id uuid.UUID) ([]string, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeploymentService) Cancel(ctx context.Context, id uuid.UUID) (*models.Deployment, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Deployment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeploymentService) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDeploymentService) Complete(ctx context.Context, id uuid.UUID, res orchestrator.Result) error {
	return m.Called(ctx, id, res).Error(0)
}

func runTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(services.RunPayload{DeploymentID: id})
	require.NoError(t, err)
	return asynq.NewTask(services.TaskRunDeployment, b)
}

func TestHandleRunSuccess(t *testing.T) {
	id := uuid.New()
	res := orchestrator.Result{Success: true, DeploymentURL: "https://irglukvb.manus.space", Duration: 1.2}

	svc := &mockDeploymentService{}
	svc.On("MarkRunning", mock.Anything, id).Return(nil).Once()
	svc.On("Complete", mock.Anything, id, res).Return(nil).Once()
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(res).Once()

	h := NewDeployTaskHandler(runner, svc)
	require.NoError(t, h.HandleRun(context.Background(), runTask(t, id.String())))

	svc.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestHandleRunFailureIsNotRetried(t *testing.T) {
	id := uuid.New()
	res := orchestrator.Result{Error: "not_found: read js/main.js", FailedStep: orchestrator.StepIntegrate}

	svc := &mockDeploymentService{}
	svc.On("MarkRunning", mock.Anything, id).Return(nil)
	svc.On("Complete", mock.Anything, id, res).Return(nil).Once()
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(res)

	err := NewDeployTaskHandler(runner, svc).HandleRun(context.Background(), runTask(t, id.String()))
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Contains(t, err.Error(), "integrate")
	svc.AssertExpectations(t)
}

func TestHandleRunRejectsBadPayload(t *testing.T) {
	h := NewDeployTaskHandler(&mockRunner{}, &mockDeploymentService{})

	err := h.HandleRun(context.Background(), asynq.NewTask(services.TaskRunDeployment, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = h.HandleRun(context.Background(), runTask(t, "not-a-uuid"))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRunMissingRecord(t *testing.T) {
	id := uuid.New()
	svc := &mockDeploymentService{}
	svc.On("MarkRunning", mock.Anything, id).Return(appErr.New(appErr.CodeNotFound, "deployment not found"))
	runner := &mockRunner{}

	err := NewDeployTaskHandler(runner, svc).HandleRun(context.Background(), runTask(t, id.String()))
	require.ErrorIs(t, err, asynq.SkipRetry)
	runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestHandleRunSkipsCancelledRecord(t *testing.T) {
	id := uuid.New()
	svc := &mockDeploymentService{}
	svc.On("MarkRunning", mock.Anything, id).Return(appErr.New(appErr.CodeConflict, "deployment is already failed"))
	runner := &mockRunner{}

	err := NewDeployTaskHandler(runner, svc).HandleRun(context.Background(), runTask(t, id.String()))
	require.NoError(t, err)
	runner.AssertNotCalled(t, "Run", mock.Anything)
	svc.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleRunRecordFailure(t *testing.T) {
	id := uuid.New()
	svc := &mockDeploymentService{}
	svc.On("MarkRunning", mock.Anything, id).Return(nil)
	svc.On("Complete", mock.Anything, id, mock.Anything).Return(errors.New("database is locked"))
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(orchestrator.Result{Success: true})

	err := NewDeployTaskHandler(runner, svc).HandleRun(context.Background(), runTask(t, id.String()))
	require.EqualError(t, err, "database is locked")
}

func TestInlineRunsTasksSerially(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var running, maxRunning, done int32
	handler := asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		atomic.AddInt32(&done, 1)
		return nil
	})

	q := NewInline(context.Background(), handler)
	for i := 0; i < 4; i++ {
		info, err := q.EnqueueContext(context.Background(), runTask(t, uuid.NewString()))
		require.NoError(t, err)
		require.Equal(t, InlineQueue, info.Queue)
		require.Equal(t, services.TaskRunDeployment, info.Type)
	}
	q.Wait()

	require.EqualValues(t, 4, atomic.LoadInt32(&done))
	require.EqualValues(t, 1, atomic.LoadInt32(&maxRunning))
}

func TestInlineRefusesAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewInline(ctx, asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return nil }))
	_, err := q.EnqueueContext(context.Background(), runTask(t, uuid.NewString()))
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestLogTaskRecordsOutcome(t *testing.T) {
	prev := logger.L()
	core, logs := observer.New(zap.InfoLevel)
	logger.Use(zap.New(core))
	t.Cleanup(func() { logger.Use(prev) })

	mux := asynq.NewServeMux()
	mux.Use(LogTask)
	fail := errors.New("tree locked")
	mux.HandleFunc(services.TaskRunDeployment, func(context.Context, *asynq.Task) error { return fail })

	err := mux.ProcessTask(context.Background(), runTask(t, uuid.NewString()))
	require.ErrorIs(t, err, fail)

	entries := logs.FilterMessage("task finished with error").All()
	require.Len(t, entries, 1)
	require.Equal(t, services.TaskRunDeployment, entries[0].ContextMap()["type"])
	require.Equal(t, "tasks", entries[0].ContextMap()["component"])
}
