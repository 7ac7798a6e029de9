package services

import (
	"context"

	"github.com/luxequeer/deployer/internal/content"
	"github.com/luxequeer/deployer/internal/generator"
	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/internal/repository"
	appErr "github.com/luxequeer/deployer/pkg/errors"
)

// Gallery is the Octavia gallery as the page would render it.
type Gallery struct {
	Category string         `json:"category"`
	Images   []models.Image `json:"images"`
	// Missing is true when the page would fall back to generating images.
	Missing bool `json:"missing"`
}

// ContentService previews the rows the generated Octavia page reads.
type ContentService interface {
	LatestEdit(ctx context.Context) (*models.Content, error)
	OctaviaGallery(ctx context.Context) (Gallery, error)
	SaveGallery(ctx context.Context, images []models.Image) error
}

type contentService struct {
	repo    repository.ContentRepository
	catalog *content.Catalog
}

// NewContentService uses the embedded catalog when catalog is nil.
func NewContentService(repo repository.ContentRepository, catalog *content.Catalog) ContentService {
	if catalog == nil {
		catalog = content.Default()
	}
	return &contentService{repo: repo, catalog: catalog}
}

var _ ContentService = (*contentService)(nil)

func (s *contentService) LatestEdit(ctx context.Context) (*models.Content, error) {
	var c models.Content
	if err := s.repo.LatestBlueLipstickEdit(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *contentService) OctaviaGallery(ctx context.Context) (Gallery, error) {
	imgs, err := s.repo.ImagesByCategory(ctx, generator.ImageCategory, generator.GallerySize)
	if err != nil {
		return Gallery{}, err
	}
	if imgs == nil {
		imgs = []models.Image{}
	}
	return Gallery{Category: generator.ImageCategory, Images: imgs, Missing: len(imgs) == 0}, nil
}

// SaveGallery stores images under the Octavia category, captioning any image
// without a description from the catalog in rotation.
func (s *contentService) SaveGallery(ctx context.Context, images []models.Image) error {
	if len(images) == 0 {
		return appErr.New(appErr.CodeInvalid, "no images to save")
	}
	captions := s.catalog.Octavia.Captions
	for i := range images {
		if images[i].URL == "" {
			return appErr.Newf(appErr.CodeInvalid, "image %d has no url", i)
		}
		images[i].Category = generator.ImageCategory
		if images[i].Description == "" && len(captions) > 0 {
			images[i].Description = captions[i%len(captions)]
		}
	}
	return s.repo.CreateImages(ctx, images)
}
