// Package content holds the magazine's editorial copy: banner quotes, placeholder
// messages, Octavia's lines and gallery captions, and the deployed feature list.
package content

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the parsed editorial copy.
type Catalog struct {
	Banner struct {
		Quotes []string `yaml:"quotes"`
	} `yaml:"banner"`
	Placeholders struct {
		ComingSoon string            `yaml:"comingSoon"`
		Pages      map[string]string `yaml:"pages"`
	} `yaml:"placeholders"`
	Social struct {
		Message   string           `yaml:"message"`
		Platforms []SocialPlatform `yaml:"platforms"`
		Contact   string           `yaml:"contact"`
	} `yaml:"social"`
	Newsletter struct {
		Success string `yaml:"success"`
		Invalid string `yaml:"invalid"`
	} `yaml:"newsletter"`
	Octavia  Octavia  `yaml:"octavia"`
	Features []string `yaml:"features"`
}

// SocialPlatform maps an outbound link prefix to a display name.
type SocialPlatform struct {
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

// Octavia is the copy used by the generated Octavia page.
type Octavia struct {
	Welcome         string   `yaml:"welcome"`
	EditorialPrompt string   `yaml:"editorialPrompt"`
	EditorialTitle  string   `yaml:"editorialTitle"`
	EditorialSlug   string   `yaml:"editorialSlug"`
	Author          string   `yaml:"author"`
	Description     string   `yaml:"description"`
	Traits          []Trait  `yaml:"traits"`
	Quotes          []string `yaml:"quotes"`
	Captions        []string `yaml:"captions"`
}

// Trait is one of Octavia's personality traits as shown on her page.
type Trait struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Parse decodes a catalog document and checks the fixed-size sections.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if n := len(c.Banner.Quotes); n != 5 {
		return nil, fmt.Errorf("catalog: banner needs 5 quotes, got %d", n)
	}
	if n := len(c.Placeholders.Pages); n != 8 {
		return nil, fmt.Errorf("catalog: expected 8 placeholder pages, got %d", n)
	}
	if n := len(c.Octavia.Captions); n != 6 {
		return nil, fmt.Errorf("catalog: gallery needs 6 captions, got %d", n)
	}
	if c.Placeholders.ComingSoon == "" {
		return nil, fmt.Errorf("catalog: comingSoon message is empty")
	}
	return &c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded document is invalid,
// which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}
