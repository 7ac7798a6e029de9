package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/internal/orchestrator"
	"github.com/luxequeer/deployer/internal/repository"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// TaskRunDeployment is the asynq task type that executes one deployment.
const TaskRunDeployment = "deployment:run"

// QueueDeployments is the asynq queue deployment tasks go to.
const QueueDeployments = "deployments"

// RunPayload is the body of a TaskRunDeployment task.
type RunPayload struct {
	DeploymentID string `json:"deployment_id"`
}

// Enqueuer is the part of *asynq.Client the service needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewRunTask builds the task for deployment id. Runs are not retried: a failed run
// is recorded and a new one must be requested.
func NewRunTask(id uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(RunPayload{DeploymentID: id.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRunDeployment, b, asynq.MaxRetry(0), asynq.Queue(QueueDeployments)), nil
}

type CreateDeploymentInput struct {
	Trigger string
	// Enqueue hands the run to the worker. The CLI runs inline and leaves it false.
	Enqueue bool
}

type DeploymentService interface {
	CreateDeployment(ctx context.Context, input CreateDeploymentInput) (*models.Deployment, error)
	GetDeployment(ctx context.Context, id uuid.UUID) (*models.Deployment, error)
	ListDeployments(ctx context.Context, filter repository.DeploymentFilter) ([]models.Deployment, error)
	GetDeploymentLogs(ctx context.Context, id uuid.UUID) ([]string, error)

	// Cancel closes a pending or running record so a new run can be requested.
	// It does not stop a run already executing in a worker.
	Cancel(ctx context.Context, id uuid.UUID) (*models.Deployment, error)

	// Called by the worker around each run.
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, res orchestrator.Result) error
}

// DefaultStaleAfter is how long an active run may go without progress before a
// new request replaces it.
const DefaultStaleAfter = 30 * time.Minute

// CancelReason is stored as the error of a cancelled run.
const CancelReason = "cancelled by operator"

type DeploymentOption func(*deploymentService)

// WithStaleAfter sets the staleness cutoff. Zero keeps active runs until they
// finish or are cancelled.
func WithStaleAfter(d time.Duration) DeploymentOption {
	return func(s *deploymentService) { s.staleAfter = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DeploymentOption {
	return func(s *deploymentService) { s.now = now }
}

type deploymentService struct {
	deployRepo repository.DeploymentRepository
	queue      Enqueuer
	now        func() time.Time
	staleAfter time.Duration
}

// NewDeploymentService wires the run history. queue may be nil when no worker is
// reachable; enqueueing creates then fail with CodeUnavailable.
func NewDeploymentService(deployRepo repository.DeploymentRepository, queue Enqueuer, opts ...DeploymentOption) DeploymentService {
	s := &deploymentService{deployRepo: deployRepo, queue: queue, now: time.Now, staleAfter: DefaultStaleAfter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ DeploymentService = (*deploymentService)(nil)

func (s *deploymentService) CreateDeployment(ctx context.Context, input CreateDeploymentInput) (*models.Deployment, error) {
	logger.L().Info("create deployment", zap.String("trigger", input.Trigger), zap.Bool("enqueue", input.Enqueue))

	if input.Enqueue && s.queue == nil {
		return nil, appErr.New(appErr.CodeUnavailable, "deployment queue is not configured")
	}

	trigger := input.Trigger
	if trigger == "" {
		trigger = "api"
	}
	// Runs mutate one site tree, so only one may be in flight.
	d := &models.Deployment{Status: models.StatusPending, Trigger: trigger}
	if err := s.deployRepo.CreateExclusive(ctx, d, s.now(), s.staleAfter); err != nil {
		return nil, err
	}

	if input.Enqueue {
		task, err := NewRunTask(d.ID)
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "build run task failed")
		}
		if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
			logger.L().Error("enqueue run task failed", zap.Error(err), zap.String("deployment_id", d.ID.String()))
			if uerr := s.deployRepo.UpdateStatus(context.WithoutCancel(ctx), d.ID, models.StatusFailed); uerr != nil {
				logger.L().Error("mark unqueued deployment failed", zap.Error(uerr), zap.String("deployment_id", d.ID.String()))
			}
			return nil, appErr.Wrap(err, appErr.CodeUnavailable, "enqueue run task failed")
		}
		logger.L().Info("deployment enqueued", zap.String("deployment_id", d.ID.String()))
	}
	return d, nil
}

func (s *deploymentService) GetDeployment(ctx context.Context, id uuid.UUID) (*models.Deployment, error) {
	var d models.Deployment
	if err := s.deployRepo.GetByID(ctx, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *deploymentService) ListDeployments(ctx context.Context, filter repository.DeploymentFilter) ([]models.Deployment, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, appErr.Newf(appErr.CodeInvalid, "unknown status %q", filter.Status)
	}
	return s.deployRepo.List(ctx, filter)
}

func (s *deploymentService) GetDeploymentLogs(ctx context.Context, id uuid.UUID) ([]string, error) {
	d, err := s.GetDeployment(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if len(d.Logs) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(d.Logs, &out); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "unmarshal logs failed")
	}
	return out, nil
}

func (s *deploymentService) Cancel(ctx context.Context, id uuid.UUID) (*models.Deployment, error) {
	logger.L().Info("cancel deployment", zap.String("deployment_id", id.String()))
	if err := s.deployRepo.Abandon(ctx, id, CancelReason, s.now()); err != nil {
		return nil, err
	}
	return s.GetDeployment(ctx, id)
}

func (s *deploymentService) MarkRunning(ctx context.Context, id uuid.UUID) error {
	logger.L().Info("deployment running", zap.String("deployment_id", id.String()))
	return s.deployRepo.MarkRunning(ctx, id, s.now())
}

// Complete stores a finished run. The orchestrator's result is the source of truth
// for status and paths.
func (s *deploymentService) Complete(ctx context.Context, id uuid.UUID, res orchestrator.Result) error {
	finished := s.now()
	out := &models.Deployment{
		Status:      models.StatusFailed,
		URL:         res.DeploymentURL,
		SummaryPath: res.SummaryPath,
		ReportPath:  res.ReportPath,
		LogFile:     res.LogFile,
		PublishedTo: res.PublishedTo,
		FailedStep:  res.FailedStep,
		Error:       res.Error,
		Duration:    res.Duration,
		FinishedAt:  &finished,
	}
	if res.Success {
		out.Status = models.StatusSucceeded
	}

	entries := res.Logs
	if entries == nil {
		entries = []string{}
	}
	logs, err := json.Marshal(entries)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "marshal logs failed")
	}
	out.Logs = datatypes.JSON(logs)
	if res.Summary != nil {
		b, err := json.Marshal(res.Summary)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "marshal summary failed")
		}
		out.Summary = datatypes.JSON(b)
	}

	logger.L().Info("deployment finished",
		zap.String("deployment_id", id.String()),
		zap.String("status", out.Status),
		zap.Float64("duration", out.Duration),
		zap.String("failed_step", out.FailedStep),
	)
	return s.deployRepo.Finish(ctx, id, out)
}

func validStatus(s string) bool {
	switch s {
	case models.StatusPending, models.StatusRunning, models.StatusSucceeded, models.StatusFailed:
		return true
	}
	return false
}
