package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/luxequeer/deployer/internal/models"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// DeploymentFilter narrows List. Zero values mean no filter.
type DeploymentFilter struct {
	Status string
	Limit  int
	Offset int
}

// DefaultListLimit caps List when the filter has no limit.
const DefaultListLimit = 50

type DeploymentRepository interface {
	BaseRepository[models.Deployment]
	List(ctx context.Context, f DeploymentFilter) ([]models.Deployment, error)
	GetActive(ctx context.Context, dest *models.Deployment) error
	CreateExclusive(ctx context.Context, d *models.Deployment, now time.Time, staleAfter time.Duration) error
	UpdateStatus(ctx context.Context, deploymentID uuid.UUID, status string) error
	MarkRunning(ctx context.Context, deploymentID uuid.UUID, at time.Time) error
	Finish(ctx context.Context, deploymentID uuid.UUID, outcome *models.Deployment) error
	Abandon(ctx context.Context, deploymentID uuid.UUID, reason string, at time.Time) error
}

var activeStatuses = []string{models.StatusPending, models.StatusRunning}

type deploymentRepository struct {
	BaseRepository[models.Deployment]
	db *gorm.DB
}

func NewDeploymentRepository(db *gorm.DB) DeploymentRepository {
	return &deploymentRepository{BaseRepository: NewBaseRepository[models.Deployment](db, "deployment"), db: db}
}

func (r *deploymentRepository) List(ctx context.Context, f DeploymentFilter) ([]models.Deployment, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q = q.Limit(limit)
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Deployment
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list deployments failed")
	}
	return out, nil
}

// GetActive loads the most recent pending or running deployment.
func (r *deploymentRepository) GetActive(ctx context.Context, dest *models.Deployment) error {
	q := r.db.WithContext(ctx).
		Where("status IN ?", activeStatuses).
		Order("created_at DESC")
	return first(q, dest, "no active deployment", "get active deployment failed")
}

// CreateExclusive inserts d unless another run is pending or running. Active runs
// with no activity for staleAfter are marked failed first; staleAfter <= 0 keeps
// them forever. On Postgres the single-active index also rejects concurrent inserts.
func (r *deploymentRepository) CreateExclusive(ctx context.Context, d *models.Deployment, now time.Time, staleAfter time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active []models.Deployment
		if err := tx.Where("status IN ?", activeStatuses).Order("created_at DESC").Find(&active).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "get active deployment failed")
		}

		var stale []uuid.UUID
		for _, a := range active {
			if staleAfter <= 0 || now.Sub(a.LastActivity()) < staleAfter {
				return activeConflict(a.ID)
			}
			stale = append(stale, a.ID)
		}
		if len(stale) > 0 {
			err := tx.Model(&models.Deployment{}).
				Where("id IN ? AND status IN ?", stale, activeStatuses).
				Updates(abandonColumns("abandoned after "+staleAfter.String()+" without progress", now)).Error
			if err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "abandon stale deployments failed")
			}
			logger.L().Warn("abandoned stale deployments", zap.Int("count", len(stale)), zap.Duration("stale_after", staleAfter))
		}

		if err := tx.Create(d).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return appErr.Wrap(err, appErr.CodeConflict, "another deployment is in progress")
			}
			return appErr.Wrap(err, appErr.CodeInternal, "create deployment failed")
		}
		return nil
	})
}

func activeConflict(id uuid.UUID) error {
	return appErr.New(appErr.CodeConflict, "another deployment is in progress").
		WithMeta("deployment_id", id.String())
}

func abandonColumns(reason string, at time.Time) map[string]any {
	return map[string]any{
		"status":      models.StatusFailed,
		"error":       reason,
		"finished_at": at,
	}
}

func (r *deploymentRepository) UpdateStatus(ctx context.Context, deploymentID uuid.UUID, status string) error {
	return r.UpdateColumns(ctx, deploymentID, map[string]any{"status": status})
}

// MarkRunning moves a pending run to running. A run that was cancelled or
// abandoned meanwhile yields conflict.
func (r *deploymentRepository) MarkRunning(ctx context.Context, deploymentID uuid.UUID, at time.Time) error {
	return r.transition(ctx, deploymentID, []string{models.StatusPending}, map[string]any{
		"status":     models.StatusRunning,
		"started_at": at,
	})
}

// Finish stores the outcome columns of a completed run. A run that was already
// closed keeps its record and yields conflict.
func (r *deploymentRepository) Finish(ctx context.Context, deploymentID uuid.UUID, outcome *models.Deployment) error {
	return r.transition(ctx, deploymentID, activeStatuses, map[string]any{
		"status":       outcome.Status,
		"url":          outcome.URL,
		"summary_path": outcome.SummaryPath,
		"report_path":  outcome.ReportPath,
		"log_file":     outcome.LogFile,
		"published_to": outcome.PublishedTo,
		"failed_step":  outcome.FailedStep,
		"error":        outcome.Error,
		"duration":     outcome.Duration,
		"logs":         outcome.Logs,
		"summary":      outcome.Summary,
		"finished_at":  outcome.FinishedAt,
	})
}

// Abandon marks an active run failed with reason so a new run can start.
func (r *deploymentRepository) Abandon(ctx context.Context, deploymentID uuid.UUID, reason string, at time.Time) error {
	return r.transition(ctx, deploymentID, activeStatuses, abandonColumns(reason, at))
}

// transition updates a run only while its status is one of from.
func (r *deploymentRepository) transition(ctx context.Context, id uuid.UUID, from []string, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Deployment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(cols)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update deployment failed").WithMeta("id", id.String())
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var d models.Deployment
	if err := r.GetByID(ctx, id, &d); err != nil {
		return err
	}
	return appErr.Newf(appErr.CodeConflict, "deployment is already %s", d.Status).
		WithMeta("id", id.String()).
		WithMeta("status", d.Status)
}
