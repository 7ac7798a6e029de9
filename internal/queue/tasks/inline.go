package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/services"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// InlineQueue is the queue name reported for in-process tasks.
const InlineQueue = "inline"

// Inline runs tasks inside the API process, one at a time, for setups without
// Redis. Tasks run under the context given to NewInline, not the request's.
type Inline struct {
	ctx     context.Context
	handler asynq.Handler

	run sync.Mutex
	wg  sync.WaitGroup
}

func NewInline(ctx context.Context, handler asynq.Handler) *Inline {
	return &Inline{ctx: ctx, handler: handler}
}

var _ services.Enqueuer = (*Inline)(nil)

func (i *Inline) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if err := i.ctx.Err(); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "inline queue stopped")
	}
	info := &asynq.TaskInfo{
		ID:      uuid.NewString(),
		Queue:   InlineQueue,
		Type:    task.Type(),
		Payload: task.Payload(),
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.run.Lock()
		defer i.run.Unlock()
		if err := i.handler.ProcessTask(i.ctx, task); err != nil {
			logger.L().Warn("inline task failed", zap.String("task_id", info.ID), zap.String("type", task.Type()), zap.Error(err))
		}
	}()
	return info, nil
}

// Wait blocks until every enqueued task has finished.
func (i *Inline) Wait() { i.wg.Wait() }
