package tasks

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/luxequeer/deployer/pkg/logger"
)

// LogTask logs the start, outcome and duration of every task the mux handles.
func LogTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		log := logger.Component("tasks").With(zap.String("type", t.Type()))
		if id, ok := asynq.GetTaskID(ctx); ok {
			log = log.With(zap.String("task_id", id))
		}

		start := time.Now()
		log.Debug("task started")
		err := next.ProcessTask(ctx, t)
		if err != nil {
			log.Warn("task finished with error", zap.Duration("duration", time.Since(start)), zap.Error(err))
			return err
		}
		log.Info("task finished", zap.Duration("duration", time.Since(start)))
		return nil
	})
}
