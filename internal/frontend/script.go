package frontend

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/luxequeer/deployer/internal/content"
)

//go:embed script.js.tmpl
var scriptTemplate string

var scriptTmpl = template.Must(template.New("script").Funcs(template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}).Parse(scriptTemplate))

type platformJS struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

type scriptData struct {
	Pages             map[string]string
	ComingSoon        string
	Quotes            []string
	Platforms         []platformJS
	SocialMessage     string
	Contact           string
	NewsletterSuccess string
	NewsletterInvalid string
	ScrolledClass     string
	ScrollThreshold   int
	HeaderOffset      int
	MarkHover         string
	MarkRest          string
	AccentHover       string
	AccentRest        string
	EmailPattern      string
	QuoteIntervalMs   int64
	QuoteFadeMs       int64
	ModalFadeMs       int64
	ModalCSS          string
}

// Script renders the page interaction script for the given catalog.
func Script(c *content.Catalog) (string, error) {
	platforms := make([]platformJS, 0, len(c.Social.Platforms))
	for _, p := range c.Social.Platforms {
		platforms = append(platforms, platformJS{Prefix: p.Prefix, Name: p.Name})
	}

	data := scriptData{
		Pages:             c.Placeholders.Pages,
		ComingSoon:        c.Placeholders.ComingSoon,
		Quotes:            c.Banner.Quotes,
		Platforms:         platforms,
		SocialMessage:     c.Social.Message,
		Contact:           c.Social.Contact,
		NewsletterSuccess: c.Newsletter.Success,
		NewsletterInvalid: c.Newsletter.Invalid,
		ScrolledClass:     ScrolledClass,
		ScrollThreshold:   ScrollThreshold,
		HeaderOffset:      HeaderOffset,
		MarkHover:         HoverTransform("blue-lipstick-mark", true),
		MarkRest:          HoverTransform("blue-lipstick-mark", false),
		AccentHover:       HoverTransform("blue-lipstick-accent", true),
		AccentRest:        HoverTransform("blue-lipstick-accent", false),
		EmailPattern:      EmailPattern(),
		QuoteIntervalMs:   QuoteInterval.Milliseconds(),
		QuoteFadeMs:       QuoteFade.Milliseconds(),
		ModalFadeMs:       ModalFade.Milliseconds(),
		ModalCSS:          ModalCSS,
	}

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render interaction script: %w", err)
	}
	return buf.String(), nil
}
