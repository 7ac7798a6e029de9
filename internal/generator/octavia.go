package generator

import (
	"context"
	"time"

	"github.com/luxequeer/deployer/internal/content"
)

// OctaviaHooks are the element IDs the Octavia script binds to.
var OctaviaHooks = []string{
	"octavia-digital-human",
	"blue-lipstick-content",
	"octavia-question",
	"ask-octavia-btn",
	"octavia-response",
	"octavia-gallery",
}

// Import is one client module the Octavia script pulls in.
type Import struct {
	Symbol string
	File   string
}

// Store tables and limits used by the Octavia script.
const (
	ContentTable   = "content"
	ImageTable     = "images"
	ImageCategory  = "octavia"
	EditorialGenre = "FASHION"
	GallerySize    = 6
	EditorialMax   = 500
)

type pageData struct {
	Author      string
	Description string
	SiteURL     string
	Traits      []content.Trait
	Year        int
}

// OctaviaPage renders pages/octavia.html and verifies every hook is present.
func OctaviaPage(c *content.Catalog, siteURL string, now time.Time) (Artifact, error) {
	c = catalogOrDefault(c)
	page, err := render("octavia_page.html.tmpl", pageData{
		Author:      c.Octavia.Author,
		Description: c.Octavia.Description,
		SiteURL:     siteURL,
		Traits:      c.Octavia.Traits,
		Year:        now.UTC().Year(),
	})
	if err != nil {
		return Artifact{}, err
	}
	if err := VerifyHooks(page, OctaviaHooks...); err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: OctaviaPagePath, Content: page}, nil
}

type scriptData struct {
	Imports       []Import
	Welcome       string
	Prompt        string
	Title         string
	Slug          string
	Author        string
	Category      string
	MaxLength     int
	Quotes        []string
	Captions      []string
	ContentTable  string
	ImageTable    string
	ImageCategory string
	GallerySize   int
}

// OctaviaScript renders js/octavia-page.js importing the given client modules and
// checks that the result parses as JavaScript.
func OctaviaScript(ctx context.Context, c *content.Catalog, imports []Import) (Artifact, error) {
	c = catalogOrDefault(c)
	src, err := render("octavia_page.js.tmpl", scriptData{
		Imports:       imports,
		Welcome:       c.Octavia.Welcome,
		Prompt:        c.Octavia.EditorialPrompt,
		Title:         c.Octavia.EditorialTitle,
		Slug:          c.Octavia.EditorialSlug,
		Author:        c.Octavia.Author,
		Category:      EditorialGenre,
		MaxLength:     EditorialMax,
		Quotes:        c.Octavia.Quotes,
		Captions:      c.Octavia.Captions,
		ContentTable:  ContentTable,
		ImageTable:    ImageTable,
		ImageCategory: ImageCategory,
		GallerySize:   GallerySize,
	})
	if err != nil {
		return Artifact{}, err
	}
	if err := CheckScript(ctx, src); err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: OctaviaJSPath, Content: src}, nil
}
