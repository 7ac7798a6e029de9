//go:build integration

// Run with: go test -tags=integration ./internal/repository/...
// Requires Docker.
package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/pkg/database"
	appErr "github.com/luxequeer/deployer/pkg/errors"
)

func TestPostgresRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("luxe"),
		tcpostgres.WithUsername("luxe"),
		tcpostgres.WithPassword("luxe"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, dsn, "test")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	content := NewContentRepository(db)
	require.NoError(t, content.Create(ctx, &models.Content{
		Title: "The Blue Lipstick Edit", Slug: "blue-lipstick-edit", Category: "FASHION", BlueLipstickEdit: true,
	}))
	var got models.Content
	require.NoError(t, content.LatestBlueLipstickEdit(ctx, &got))
	require.Equal(t, "blue-lipstick-edit", got.Slug)

	// The column keeps its camel-case name for the site's Supabase queries.
	var n int64
	require.NoError(t, db.Raw(`SELECT count(*) FROM content WHERE "blueLipstickEdit" = true`).Scan(&n).Error)
	require.EqualValues(t, 1, n)

	deploys := NewDeploymentRepository(db)
	d := &models.Deployment{Status: models.StatusPending, Trigger: "api"}
	require.NoError(t, deploys.Create(ctx, d))
	require.NoError(t, deploys.MarkRunning(ctx, d.ID, time.Now()))
	var active models.Deployment
	require.NoError(t, deploys.GetActive(ctx, &active))
	require.Equal(t, models.StatusRunning, active.Status)

	// The index holds even when the in-transaction check is bypassed.
	err = deploys.Create(ctx, &models.Deployment{Status: models.StatusPending, Trigger: "api"})
	require.Error(t, err)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, deploys.Abandon(ctx, d.ID, "cancelled by operator", time.Now()))

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- deploys.CreateExclusive(ctx, &models.Deployment{Status: models.StatusPending, Trigger: "api"}, time.Now(), 30*time.Minute)
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		require.True(t, appErr.IsCode(err, appErr.CodeConflict), err)
	}
	require.Equal(t, 1, created)

	var n64 int64
	require.NoError(t, db.Model(&models.Deployment{}).Where("status IN ?", []string{models.StatusPending, models.StatusRunning}).Count(&n64).Error)
	require.EqualValues(t, 1, n64)
}
