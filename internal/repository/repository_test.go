package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/pkg/database"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("info", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), dsn, "test")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestDeploymentLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewDeploymentRepository(newDB(t))

	d := &models.Deployment{Status: models.StatusPending, Trigger: "api"}
	require.NoError(t, repo.Create(ctx, d))
	require.NotEqual(t, uuid.Nil, d.ID)

	var active models.Deployment
	require.NoError(t, repo.GetActive(ctx, &active))
	require.Equal(t, d.ID, active.ID)

	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, repo.MarkRunning(ctx, d.ID, started))

	finished := started.Add(2 * time.Second)
	require.NoError(t, repo.Finish(ctx, d.ID, &models.Deployment{
		Status:      models.StatusSucceeded,
		URL:         "https://irglukvb.manus.space",
		SummaryPath: "deployment_output/deployment_summary.json",
		Duration:    2,
		Logs:        datatypes.JSON(`["[2025-03-14T09:26:53.000Z] [INFO] Starting"]`),
		FinishedAt:  &finished,
	}))

	var got models.Deployment
	require.NoError(t, repo.GetByID(ctx, d.ID, &got))
	require.Equal(t, models.StatusSucceeded, got.Status)
	require.Equal(t, "https://irglukvb.manus.space", got.URL)
	require.Equal(t, 2.0, got.Duration)
	require.JSONEq(t, `["[2025-03-14T09:26:53.000Z] [INFO] Starting"]`, string(got.Logs))
	require.NotNil(t, got.StartedAt)
	require.True(t, got.StartedAt.Equal(started))
	require.False(t, got.Active())

	err := repo.GetActive(ctx, &active)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestCreateExclusiveReapsOnlyStaleRuns(t *testing.T) {
	ctx := context.Background()
	repo := NewDeploymentRepository(newDB(t))

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	queued := &models.Deployment{Status: models.StatusPending, Trigger: "api", CreatedAt: base}
	require.NoError(t, repo.Create(ctx, queued))

	err := repo.CreateExclusive(ctx, &models.Deployment{Status: models.StatusPending, Trigger: "api"}, base.Add(10*time.Minute), 30*time.Minute)
	require.True(t, appErr.IsCode(err, appErr.CodeConflict))

	// Starting the run counts as progress.
	require.NoError(t, repo.MarkRunning(ctx, queued.ID, base.Add(25*time.Minute)))
	err = repo.CreateExclusive(ctx, &models.Deployment{Status: models.StatusPending, Trigger: "api"}, base.Add(40*time.Minute), 30*time.Minute)
	require.True(t, appErr.IsCode(err, appErr.CodeConflict))

	next := &models.Deployment{Status: models.StatusPending, Trigger: "api"}
	require.NoError(t, repo.CreateExclusive(ctx, next, base.Add(time.Hour), 30*time.Minute))

	var old models.Deployment
	require.NoError(t, repo.GetByID(ctx, queued.ID, &old))
	require.Equal(t, models.StatusFailed, old.Status)
	require.Equal(t, "abandoned after 30m0s without progress", old.Error)
	require.NotNil(t, old.FinishedAt)
	require.True(t, old.FinishedAt.Equal(base.Add(time.Hour)))

	var active models.Deployment
	require.NoError(t, repo.GetActive(ctx, &active))
	require.Equal(t, next.ID, active.ID)
}

func TestTransitionsOnlyFromActiveStates(t *testing.T) {
	ctx := context.Background()
	repo := NewDeploymentRepository(newDB(t))
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	d := &models.Deployment{Status: models.StatusPending, Trigger: "cli"}
	require.NoError(t, repo.Create(ctx, d))
	require.NoError(t, repo.Abandon(ctx, d.ID, "cancelled by operator", at))

	err := repo.MarkRunning(ctx, d.ID, at)
	require.True(t, appErr.IsCode(err, appErr.CodeConflict))
	err = repo.Finish(ctx, d.ID, &models.Deployment{Status: models.StatusSucceeded})
	require.True(t, appErr.IsCode(err, appErr.CodeConflict))
	err = repo.Abandon(ctx, d.ID, "again", at)
	require.True(t, appErr.IsCode(err, appErr.CodeConflict))

	var got models.Deployment
	require.NoError(t, repo.GetByID(ctx, d.ID, &got))
	require.Equal(t, models.StatusFailed, got.Status)
	require.Equal(t, "cancelled by operator", got.Error)

	err = repo.Abandon(ctx, uuid.New(), "missing", at)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestDeploymentListFilters(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	repo := NewDeploymentRepository(db)

	base := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	for i, status := range []string{models.StatusFailed, models.StatusSucceeded, models.StatusSucceeded} {
		d := &models.Deployment{Status: status, Trigger: "cli", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Create(ctx, d))
	}

	all, err := repo.List(ctx, DeploymentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	ok, err := repo.List(ctx, DeploymentFilter{Status: models.StatusSucceeded, Limit: 1})
	require.NoError(t, err)
	require.Len(t, ok, 1)
	require.Equal(t, models.StatusSucceeded, ok[0].Status)

	paged, err := repo.List(ctx, DeploymentFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, models.StatusFailed, paged[0].Status)
}

func TestUpdateUnknownDeployment(t *testing.T) {
	repo := NewDeploymentRepository(newDB(t))
	err := repo.UpdateStatus(context.Background(), uuid.New(), models.StatusFailed)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	err = repo.Delete(context.Background(), uuid.New())
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestLatestBlueLipstickEdit(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository(newDB(t))

	err := repo.LatestBlueLipstickEdit(ctx, &models.Content{})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.Content{
		{Title: "Old Edit", Slug: "old-edit", Category: "FASHION", BlueLipstickEdit: true, CreatedAt: base},
		{Title: "New Edit", Slug: "new-edit", Category: "FASHION", BlueLipstickEdit: true, CreatedAt: base.Add(48 * time.Hour)},
		{Title: "Newest Feature", Slug: "feature", Category: "CULTURE", CreatedAt: base.Add(96 * time.Hour)},
	}
	for i := range rows {
		require.NoError(t, repo.Create(ctx, &rows[i]))
	}

	var got models.Content
	require.NoError(t, repo.LatestBlueLipstickEdit(ctx, &got))
	require.Equal(t, "new-edit", got.Slug)
}

func TestImagesByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository(newDB(t))

	var imgs []models.Image
	for i := 0; i < 8; i++ {
		imgs = append(imgs, models.Image{
			URL:      fmt.Sprintf("../images/octavia-%d.jpg", i+1),
			Category: "octavia",
		})
	}
	imgs = append(imgs, models.Image{URL: "../images/cover.jpg", Category: "covers"})
	require.NoError(t, repo.CreateImages(ctx, imgs))
	require.NoError(t, repo.CreateImages(ctx, nil))

	got, err := repo.ImagesByCategory(ctx, "octavia", 6)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for _, img := range got {
		require.Equal(t, "octavia", img.Category)
	}

	covers, err := repo.ImagesByCategory(ctx, "covers", 0)
	require.NoError(t, err)
	require.Len(t, covers, 1)
}
