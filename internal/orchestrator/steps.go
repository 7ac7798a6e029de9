package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/luxequeer/deployer/internal/generator"
	"github.com/luxequeer/deployer/internal/integrations"
	"github.com/luxequeer/deployer/internal/patch"
	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

// Step names as they appear in errors, metrics and run records.
const (
	StepInitialize = "initialize"
	StepPrepare    = "prepare"
	StepIntegrate  = "integrate"
	StepOctavia    = "octavia-page"
	StepMinify     = "minify"
	StepRewrite    = "rewrite"
	StepPublish    = "publish"
	StepReport     = "report"
)

// MainScript is the shared entry point every client module is imported into.
const MainScript = "js/main.js"

type step struct {
	name string
	run  func(ctx context.Context, r *run) error
}

func (d *Deployer) pipeline() []step {
	return []step{
		{StepInitialize, d.initialize},
		{StepPrepare, d.prepare},
		{StepIntegrate, d.integrate},
		{StepOctavia, d.octaviaPage},
		{StepMinify, d.minify},
		{StepRewrite, d.rewrite},
		{StepPublish, d.publish},
		{StepReport, d.report},
	}
}

func stepError(step string, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		code = apperrors.CodeInternal
	}
	return apperrors.Wrap(err, code, step).WithMeta("step", step)
}

// initialize runs every integration's Initialize concurrently. The first failure
// cancels the others; Wait joins them all before returning.
func (d *Deployer) initialize(ctx context.Context, r *run) error {
	r.log.Info("Step 1: Initializing all components")
	r.log.Info("Initializing all components in parallel")

	g, gctx := errgroup.WithContext(ctx)
	for _, in := range d.opts.Integrations {
		g.Go(func() error {
			return in.Initialize(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return stepError(StepInitialize, err)
	}

	r.log.Success("All components initialized successfully")
	return nil
}

func (d *Deployer) prepare(_ context.Context, r *run) error {
	r.log.Info("Step 2: Preparing website for integration")

	a, err := generator.IntegrationConfig(d.opts.ClientConfig)
	if err != nil {
		return stepError(StepPrepare, err)
	}
	if err := writeArtifact(d.opts.Site, a); err != nil {
		return stepError(StepPrepare, err)
	}

	r.log.Success("Integration configuration file created")
	return nil
}

var displayNames = map[string]string{
	"supabase":    "Supabase",
	"huggingface": "Hugging Face",
	"aimodels":    "AI model",
	"n8n":         "n8n workflow",
	"nvidia":      "NVIDIA digital human",
	"imagegen":    "Image generation",
}

func displayName(in integrations.Integration) string {
	if n, ok := displayNames[in.Name()]; ok {
		return n
	}
	return in.Name()
}

// integrate writes each client module and guards main.js with its import, in
// registry order.
func (d *Deployer) integrate(ctx context.Context, r *run) error {
	for i, in := range d.opts.Integrations {
		name := displayName(in)
		r.log.Info(fmt.Sprintf("Step %d: Integrating %s with website", i+3, name))

		code, err := in.GenerateClientCode(ctx)
		if err != nil {
			return stepError(StepIntegrate, err)
		}
		b := in.Binding()
		if err := util.WriteFile(d.opts.Site, b.Path(), []byte(code), 0o644); err != nil {
			return stepError(StepIntegrate, apperrors.Wrap(err, apperrors.CodeInternal, "write "+b.Path()))
		}

		main, err := util.ReadFile(d.opts.Site, MainScript)
		if err != nil {
			return stepError(StepIntegrate, apperrors.Wrap(err, notFoundOr(err), "read "+MainScript))
		}
		if patched, changed := patch.EnsureImport(string(main), b.Marker(), b.ImportLine()); changed {
			if err := util.WriteFile(d.opts.Site, MainScript, []byte(patched), 0o644); err != nil {
				return stepError(StepIntegrate, apperrors.Wrap(err, apperrors.CodeInternal, "write "+MainScript))
			}
		}

		r.log.Success(name + " integration with website completed")
	}
	return nil
}

func (d *Deployer) octaviaPage(ctx context.Context, r *run) error {
	r.log.Info(fmt.Sprintf("Step %d: Creating Octavia page with all integrations", len(d.opts.Integrations)+3))

	page, err := generator.OctaviaPage(d.opts.Catalog, d.opts.DeploymentURL, r.startedAt)
	if err != nil {
		return stepError(StepOctavia, err)
	}

	imports := make([]generator.Import, 0, len(d.opts.Integrations))
	for _, in := range d.opts.Integrations {
		b := in.Binding()
		imports = append(imports, generator.Import{Symbol: b.Symbol, File: b.File})
	}
	script, err := generator.OctaviaScript(ctx, d.opts.Catalog, imports)
	if err != nil {
		return stepError(StepOctavia, err)
	}

	for _, a := range []generator.Artifact{page, script} {
		if err := writeArtifact(d.opts.Site, a); err != nil {
			return stepError(StepOctavia, err)
		}
	}

	r.log.Success("Octavia page with all integrations created")
	return nil
}

// minify compresses every top-level js/*.js into build/.
func (d *Deployer) minify(ctx context.Context, r *run) error {
	r.log.Info(fmt.Sprintf("Step %d: Optimizing and minifying JavaScript files", len(d.opts.Integrations)+4))

	if err := d.opts.Site.MkdirAll("build", 0o755); err != nil {
		return stepError(StepMinify, apperrors.Wrap(err, apperrors.CodeInternal, "create build dir"))
	}

	if d.opts.Minifier == nil {
		return stepError(StepMinify, apperrors.New(apperrors.CodeInvalid, "no minifier configured"))
	}
	installed, err := d.opts.Minifier.Prepare(ctx)
	if installed {
		r.log.Info("Installing terser for JavaScript minification")
	}
	if err != nil {
		return stepError(StepMinify, err)
	}

	scripts, err := filesWithSuffix(d.opts.Site, "js", ".js")
	if err != nil {
		return stepError(StepMinify, err)
	}
	for _, name := range scripts {
		src, dst := path.Join("js", name), path.Join("build", name)
		if err := d.opts.Minifier.Minify(ctx, src, dst); err != nil {
			return stepError(StepMinify, err)
		}
		r.metrics.ScriptMinified()
		r.result.Minified = append(r.result.Minified, name)
		r.log.Info("Minified " + name)
	}
	return nil
}

// rewrite points module script tags of index.html and pages/*.html at build/.
func (d *Deployer) rewrite(_ context.Context, r *run) error {
	pages, err := filesWithSuffix(d.opts.Site, "pages", ".html")
	if err != nil {
		return stepError(StepRewrite, err)
	}
	targets := []string{"index.html"}
	for _, p := range pages {
		targets = append(targets, path.Join("pages", p))
	}

	for _, name := range targets {
		data, err := util.ReadFile(d.opts.Site, name)
		if err != nil {
			return stepError(StepRewrite, apperrors.Wrap(err, notFoundOr(err), "read "+name))
		}
		if out, changed := generator.RewriteScriptSources(data); changed {
			if err := util.WriteFile(d.opts.Site, name, out, 0o644); err != nil {
				return stepError(StepRewrite, apperrors.Wrap(err, apperrors.CodeInternal, "write "+name))
			}
		}
		r.log.Info(fmt.Sprintf("Updated %s to use minified JavaScript", path.Base(name)))
	}

	r.log.Success("JavaScript optimization and minification completed")
	return nil
}

func (d *Deployer) publish(ctx context.Context, r *run) error {
	r.log.Info(fmt.Sprintf("Step %d: Deploying the final platform", len(d.opts.Integrations)+5))
	r.log.Info("Deploying to " + d.opts.DeploymentURL)

	if d.opts.Publisher == nil {
		return nil
	}

	loc := d.opts.Publisher.Location()
	r.log.Info("Publishing site files to " + loc)
	n, err := d.opts.Publisher.Publish(ctx, d.opts.Site, func(string) {
		r.metrics.ObjectPublished()
	})
	if err != nil {
		return stepError(StepPublish, err)
	}
	r.result.PublishedTo = loc
	r.log.Success(fmt.Sprintf("Published %d files to %s", n, loc))
	return nil
}

// report writes the summary and the report with one shared timestamp.
func (d *Deployer) report(_ context.Context, r *run) error {
	at := d.opts.Clock()
	summary := generator.NewSummary(d.opts.Catalog, d.opts.DeploymentURL, at)

	sa, err := generator.SummaryJSON(summary)
	if err != nil {
		return stepError(StepReport, err)
	}
	ra, err := generator.Report(generator.ReportInput{
		Summary:     summary,
		PublishedTo: r.result.PublishedTo,
		Minified:    r.result.Minified,
	})
	if err != nil {
		return stepError(StepReport, err)
	}
	for _, a := range []generator.Artifact{sa, ra} {
		if err := writeArtifact(d.opts.Output, a); err != nil {
			return stepError(StepReport, err)
		}
	}

	r.result.Summary = &summary
	r.result.Report = string(ra.Content)
	r.result.SummaryPath = d.displayPath(sa.Path)
	r.result.ReportPath = d.displayPath(ra.Path)

	r.log.Success("Final platform successfully deployed")
	r.log.Success("Deployment URL: " + d.opts.DeploymentURL)
	r.log.Success("Deployment summary: " + r.result.SummaryPath)
	r.log.Success("Deployment report: " + r.result.ReportPath)
	return nil
}

func writeArtifact(fs billy.Filesystem, a generator.Artifact) error {
	if err := util.WriteFile(fs, a.Path, a.Content, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "write "+a.Path)
	}
	return nil
}

// filesWithSuffix lists regular files directly inside dir whose names end in suffix.
func filesWithSuffix(fs billy.Filesystem, dir, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, notFoundOr(err), "list "+dir)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func notFoundOr(err error) apperrors.Code {
	if errors.Is(err, os.ErrNotExist) {
		return apperrors.CodeNotFound
	}
	return apperrors.CodeInternal
}
