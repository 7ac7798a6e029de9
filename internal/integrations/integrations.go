// Package integrations wires the magazine's external services into the site tree.
// Each integration checks its own settings, optionally probes its service, and renders
// the browser module that exposes it to the page scripts.
package integrations

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"net/url"
	"text/template"

	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

// Integration is one external service the deployment wires into the site.
type Integration interface {
	Name() string
	Binding() Binding
	// Initialize validates settings and, when probing is on, checks the service answers.
	Initialize(ctx context.Context) error
	// GenerateClientCode renders the browser module for the service.
	GenerateClientCode(ctx context.Context) (string, error)
}

// Binding says where the client module lives and which symbol main.js imports from it.
type Binding struct {
	File   string
	Symbol string
}

// Path is the module's location in the site tree.
func (b Binding) Path() string { return "js/" + b.File }

// Marker is the text whose presence in main.js means the import already exists.
func (b Binding) Marker() string { return "import { " + b.Symbol + " } from" }

// ImportLine is the statement prepended to main.js.
func (b Binding) ImportLine() string {
	return "import { " + b.Symbol + " } from './" + b.File + "';"
}

//go:embed templates/*.js.tmpl
var templateFS embed.FS

var clientTemplates = template.Must(template.New("clients").Funcs(template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}).ParseFS(templateFS, "templates/*.js.tmpl"))

func renderClient(b Binding, data any) (string, error) {
	var buf bytes.Buffer
	if err := clientTemplates.ExecuteTemplate(&buf, b.File+".tmpl", data); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "render "+b.File)
	}
	return buf.String(), nil
}

func requireValue(integration, key, value string) error {
	if value == "" {
		return apperrors.Newf(apperrors.CodeInvalid, "%s: %s is required", integration, key).
			WithMeta("integration", integration)
	}
	return nil
}

func requireURL(integration, key, value string) error {
	if err := requireValue(integration, key, value); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Newf(apperrors.CodeInvalid, "%s: %s must be an http(s) URL", integration, key).
			WithMeta("integration", integration).
			WithMeta("value", value)
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
