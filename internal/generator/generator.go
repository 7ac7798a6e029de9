// Package generator renders every file the deployer writes into the site tree and
// the output directory, and checks generated markup and scripts before they land.
package generator

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/luxequeer/deployer/internal/content"
	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("generator").Funcs(template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := marshal(v, "")
		return string(b), err
	},
}).ParseFS(templateFS, "templates/*.tmpl"))

// Paths of generated artifacts, relative to the site tree or the output directory.
const (
	ConfigModulePath = "js/integration-config.js"
	OctaviaPagePath  = "pages/octavia.html"
	OctaviaJSPath    = "js/octavia-page.js"
	SummaryPath      = "deployment_summary.json"
	ReportPath       = "deployment_report.md"
)

// Artifact is a rendered file and where it goes.
type Artifact struct {
	Path    string
	Content []byte
}

// TimeFormat is the timestamp format used in the summary and the report.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way generated documents record it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "render "+name)
	}
	return buf.Bytes(), nil
}

// marshal encodes v as JSON without HTML escaping, indented when indent is set,
// and without the encoder's trailing newline.
func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// catalogOrDefault keeps callers from threading the embedded catalog everywhere.
func catalogOrDefault(c *content.Catalog) *content.Catalog {
	if c == nil {
		return content.Default()
	}
	return c
}
