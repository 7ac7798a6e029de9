package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/luxequeer/deployer/internal/models"
	appErr "github.com/luxequeer/deployer/pkg/errors"
)

// ContentRepository reads the tables the Octavia page renders from.
type ContentRepository interface {
	BaseRepository[models.Content]
	LatestBlueLipstickEdit(ctx context.Context, dest *models.Content) error
	CreateImages(ctx context.Context, images []models.Image) error
	ImagesByCategory(ctx context.Context, category string, limit int) ([]models.Image, error)
}

type contentRepository struct {
	BaseRepository[models.Content]
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{BaseRepository: NewBaseRepository[models.Content](db, "content"), db: db}
}

func (r *contentRepository) LatestBlueLipstickEdit(ctx context.Context, dest *models.Content) error {
	q := r.db.WithContext(ctx).
		Where(&models.Content{BlueLipstickEdit: true}).
		Order("created_at DESC")
	return first(q, dest, "no Blue Lipstick Edit published", "get latest edit failed")
}

func (r *contentRepository) CreateImages(ctx context.Context, images []models.Image) error {
	if len(images) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "create images failed")
	}
	return nil
}

func (r *contentRepository) ImagesByCategory(ctx context.Context, category string, limit int) ([]models.Image, error) {
	var out []models.Image
	q := r.db.WithContext(ctx).Where("category = ?", category).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list images failed")
	}
	return out, nil
}
