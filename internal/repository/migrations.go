package repository

import (
	"gorm.io/gorm"

	"github.com/luxequeer/deployer/internal/models"
)

// Migrate creates or updates every table, then applies what AutoMigrate cannot
// express. The extra indexes are Postgres only.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return runCustomMigrations(db)
}

func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addEditorialIndex,
		addGalleryIndex,
		addSingleActiveDeploymentIndex,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addEditorialIndex serves the Octavia page's latest Blue Lipstick Edit query.
func addEditorialIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_content_blue_lipstick_latest
		ON content(created_at DESC)
		WHERE "blueLipstickEdit" = true
	`).Error
}

// addGalleryIndex serves the gallery lookup by category.
func addGalleryIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_images_category_created
		ON images(category, created_at)
	`).Error
}

// addSingleActiveDeploymentIndex lets at most one live row be pending or running.
// Every indexed row holds the same value, so a second one violates uniqueness.
func addSingleActiveDeploymentIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_deployments_single_active
		ON deployments ((status IN ('pending', 'running')))
		WHERE status IN ('pending', 'running') AND deleted_at IS NULL
	`).Error
}
