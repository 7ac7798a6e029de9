package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appErr "github.com/luxequeer/deployer/pkg/errors"
)

// BaseRepository holds the uuid-keyed operations every table shares.
type BaseRepository[T any] interface {
	Create(ctx context.Context, obj *T) error
	GetByID(ctx context.Context, id uuid.UUID, dest *T) error
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type baseRepository[T any] struct {
	db *gorm.DB
	// entity names the row kind in error messages.
	entity string
}

func NewBaseRepository[T any](db *gorm.DB, entity string) BaseRepository[T] {
	return &baseRepository[T]{db: db, entity: entity}
}

func (r *baseRepository[T]) Create(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Create(obj).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "create "+r.entity+" failed")
	}
	return nil
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id uuid.UUID, dest *T) error {
	return first(r.db.WithContext(ctx).Where("id = ?", id), dest, r.entity+" not found", "get "+r.entity+" failed")
}

// UpdateColumns writes cols on one row. Zero values in cols are written too.
func (r *baseRepository[T]) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	var t T
	res := r.db.WithContext(ctx).Model(&t).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update "+r.entity+" failed").WithMeta("id", id.String())
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, r.entity+" not found").WithMeta("id", id.String())
	}
	return nil
}

func (r *baseRepository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var t T
	res := r.db.WithContext(ctx).Delete(&t, "id = ?", id)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete "+r.entity+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, r.entity+" not found").WithMeta("id", id.String())
	}
	return nil
}

// first loads the first row of q into dest, mapping an empty result to not_found.
func first[T any](q *gorm.DB, dest *T, notFound, failed string) error {
	err := q.First(dest).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return appErr.New(appErr.CodeNotFound, notFound)
	default:
		return appErr.Wrap(err, appErr.CodeInternal, failed)
	}
}
