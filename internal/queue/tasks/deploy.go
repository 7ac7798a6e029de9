package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/orchestrator"
	"github.com/luxequeer/deployer/internal/services"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// DeployTaskHandler executes queued deployment runs.
type DeployTaskHandler struct {
	runner    orchestrator.Orchestrator
	deploySvc services.DeploymentService
}

func NewDeployTaskHandler(runner orchestrator.Orchestrator, deploySvc services.DeploymentService) *DeployTaskHandler {
	return &DeployTaskHandler{runner: runner, deploySvc: deploySvc}
}

// Register mounts the handler on mux.
func (h *DeployTaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(services.TaskRunDeployment, h.HandleRun)
}

// HandleRun runs one deployment and records its result. Failed runs are recorded
// and never retried.
func (h *DeployTaskHandler) HandleRun(ctx context.Context, t *asynq.Task) error {
	var p services.RunPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid run task payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	id, err := uuid.Parse(p.DeploymentID)
	if err != nil {
		logger.L().Error("invalid deployment id in task", zap.Error(err))
		return fmt.Errorf("parse deployment id: %v: %w", err, asynq.SkipRetry)
	}

	log := logger.L().With(zap.String("deployment_id", id.String()))
	log.Info("handling run task")

	if err := h.deploySvc.MarkRunning(ctx, id); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			log.Error("deployment record missing", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if appErr.IsCode(err, appErr.CodeConflict) {
			log.Warn("deployment no longer pending, skipping run", zap.Error(err))
			return nil
		}
		log.Warn("mark running failed", zap.Error(err))
	}

	res := h.runner.Run(ctx)

	// The run may have been cut short by ctx; the record must still be written.
	if err := h.deploySvc.Complete(context.WithoutCancel(ctx), id, res); err != nil {
		log.Error("record deployment result failed", zap.Error(err))
		return err
	}

	if !res.Success {
		log.Warn("deployment failed", zap.String("step", res.FailedStep), zap.String("error", res.Error))
		return fmt.Errorf("deployment failed at %s: %s: %w", res.FailedStep, res.Error, asynq.SkipRetry)
	}
	log.Info("deployment succeeded", zap.Float64("duration", res.Duration), zap.String("url", res.DeploymentURL))
	return nil
}
