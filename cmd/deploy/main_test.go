package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/internal/repository"
	"github.com/luxequeer/deployer/internal/services"
	"github.com/luxequeer/deployer/pkg/config"
	"github.com/luxequeer/deployer/pkg/database"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestHashPasswordFromArgAndStdin(t *testing.T) {
	for _, tc := range []struct {
		name  string
		stdin string
		args  []string
	}{
		{"arg", "", []string{"hash-password", "blue-lipstick"}},
		{"stdin", "blue-lipstick\n", []string{"hash-password"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			hash := strings.TrimSpace(execute(t, tc.stdin, tc.args...))
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("blue-lipstick")))
		})
	}
}

func TestTokenSigningSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token"})
	require.ErrorIs(t, rootCmd.Execute(), config.ErrSigningSecretRequired)

	t.Setenv("JWT_SECRET", "cli-test-secret")
	tok := strings.TrimSpace(execute(t, "", "token", "--ttl", "1h"))
	require.Len(t, strings.Split(tok, "."), 3)

	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	tok = strings.TrimSpace(execute(t, "", "token", "--ttl", "1h"))
	require.Len(t, strings.Split(tok, "."), 3)
}

func TestCancelStuckDeployment(t *testing.T) {
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "deploy.db")
	t.Setenv("DATABASE_URL", dsn)

	ctx := context.Background()
	db, err := database.Open(ctx, dsn, "test")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	repo := repository.NewDeploymentRepository(db)
	stuck := &models.Deployment{Status: models.StatusRunning, Trigger: "cli"}
	require.NoError(t, repo.Create(ctx, stuck))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	out := execute(t, "", "cancel", stuck.ID.String())
	require.Contains(t, out, "cancelled "+stuck.ID.String())

	db, err = database.Open(ctx, dsn, "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	var got models.Deployment
	require.NoError(t, repository.NewDeploymentRepository(db).GetByID(ctx, stuck.ID, &got))
	require.Equal(t, models.StatusFailed, got.Status)
	require.Equal(t, services.CancelReason, got.Error)

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"cancel", "not-a-uuid"})
	require.Error(t, rootCmd.Execute())
}

func TestScaffoldIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WEBSITE_DIR", dir)

	out := execute(t, "", "scaffold")
	require.Contains(t, out, "js/main.js")
	require.FileExists(t, filepath.Join(dir, "js", "main.js"))
	require.FileExists(t, filepath.Join(dir, "index.html"))

	info, err := os.Stat(filepath.Join(dir, "pages"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.Contains(t, execute(t, "", "scaffold"), "already present")
}
