// Package orchestrator runs the platform deployment: it wires the integrations into
// the site tree, renders the Octavia page, minifies scripts, and writes the log,
// summary and report. Steps run in order and the first failure ends the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/content"
	"github.com/luxequeer/deployer/internal/deploylog"
	"github.com/luxequeer/deployer/internal/generator"
	"github.com/luxequeer/deployer/internal/integrations"
	"github.com/luxequeer/deployer/internal/metrics"
	"github.com/luxequeer/deployer/internal/minify"
	"github.com/luxequeer/deployer/internal/publish"
	"github.com/luxequeer/deployer/pkg/config"
	apperrors "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// MetricsFile is written next to the summary after every run.
const MetricsFile = "deployment_metrics.prom"

// Orchestrator runs one deployment.
type Orchestrator interface {
	Run(ctx context.Context) Result
}

// Publisher uploads the finished site tree.
type Publisher interface {
	Publish(ctx context.Context, site billy.Filesystem, onObject func(key string)) (int, error)
	Location() string
}

// Result reports a run. Failed runs carry Error and FailedStep instead of paths.
type Result struct {
	Success       bool     `json:"success"`
	DeploymentURL string   `json:"deploymentUrl,omitempty"`
	SummaryPath   string   `json:"summaryPath,omitempty"`
	ReportPath    string   `json:"reportPath,omitempty"`
	Error         string   `json:"error,omitempty"`
	FailedStep    string   `json:"failedStep,omitempty"`
	Duration      float64  `json:"duration"`
	Logs          []string `json:"logs"`
	LogFile       string   `json:"logFile"`

	Summary     *generator.Summary `json:"summary,omitempty"`
	Report      string             `json:"-"`
	Minified    []string           `json:"minified,omitempty"`
	PublishedTo string             `json:"publishedTo,omitempty"`
}

// Options wires a Deployer. Site and Output are required.
type Options struct {
	// Site is the static site tree (js/, pages/, index.html).
	Site billy.Filesystem
	// Output receives the log, summary, report and metrics.
	Output billy.Filesystem
	// OutputDir is how Output is named in results and log lines.
	OutputDir string

	Integrations  []integrations.Integration
	Minifier      minify.Minifier
	Publisher     Publisher
	Metrics       *metrics.Recorder
	Catalog       *content.Catalog
	DeploymentURL string
	ClientConfig  generator.ConfigInput

	Clock func() time.Time
	Log   *zap.Logger
}

// Deployer is the Orchestrator over billy file systems.
type Deployer struct {
	opts  Options
	steps []step
}

var _ Orchestrator = (*Deployer)(nil)

func New(opts Options) *Deployer {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	d := &Deployer{opts: opts}
	d.steps = d.pipeline()
	return d
}

// FromConfig builds a Deployer over the real site and output directories.
func FromConfig(ctx context.Context, cfg config.Config) (*Deployer, error) {
	opts := Options{
		Site:          osfs.New(cfg.WebsiteDir),
		Output:        osfs.New(cfg.OutputDir),
		OutputDir:     cfg.OutputDir,
		Integrations:  integrations.FromConfig(cfg),
		Minifier:      minify.NewTerser(cfg.WebsiteDir, cfg.MinifierBin, cfg.MinifierAutoInstall),
		DeploymentURL: cfg.DeploymentURL,
		ClientConfig: generator.ConfigInput{
			SupabaseURL:      cfg.SupabaseURL,
			SupabaseAnonKey:  cfg.SupabaseAnonKey,
			HuggingFaceOrgID: cfg.HuggingFaceOrgID,
			N8NURL:           cfg.N8NURL,
		},
		Log: logger.Component("deploy"),
	}
	if cfg.PublishEnabled() {
		p, err := publish.New(ctx, cfg.PublishRegion, cfg.PublishBucket, cfg.PublishPrefix)
		if err != nil {
			return nil, err
		}
		opts.Publisher = p
	}
	return New(opts), nil
}

// Metrics exposes the recorder the runs report to.
func (d *Deployer) Metrics() *metrics.Recorder { return d.opts.Metrics }

// run carries the state shared by the steps of one run.
type run struct {
	log       *deploylog.Logger
	startedAt time.Time
	result    *Result
	metrics   *metrics.Recorder
}

// Run executes the pipeline. It never returns an error: failures are reported in
// the Result and the log file. Only a log file that cannot be created at all yields
// a Result without logs.
func (d *Deployer) Run(ctx context.Context) Result {
	res := Result{}

	dlog, err := deploylog.New(d.opts.Output, deploylog.FileName,
		deploylog.WithClock(d.opts.Clock), deploylog.WithZap(d.opts.Log))
	if err != nil {
		d.opts.Log.Error("cannot create deployment log", zap.Error(err))
		d.opts.Metrics.RunFinished(false)
		res.Error = err.Error()
		res.LogFile = d.displayPath(deploylog.FileName)
		return res
	}

	r := &run{log: dlog, startedAt: d.opts.Clock(), result: &res, metrics: d.opts.Metrics.Child()}
	dlog.Info("Starting deployment of Luxe Queer Magazine Platform")

	failed := d.execute(ctx, r)
	if failed == nil {
		res.Success = true
		res.DeploymentURL = d.opts.DeploymentURL
	} else {
		res.Error = causeMessage(failed.cause)
		res.FailedStep = failed.step
		dlog.Error("Deployment failed: " + res.Error)
		dlog.Error(trace(failed.step, failed.cause))
	}

	r.metrics.RunFinished(res.Success)
	d.writeMetrics(dlog, r.metrics)

	summary, err := dlog.Finalize()
	if err != nil {
		d.opts.Log.Warn("finalize deployment log", zap.Error(err))
	}
	res.Duration = summary.Seconds()
	res.Logs = summary.Logs
	res.LogFile = d.displayPath(summary.LogFile)
	return res
}

type stepFailure struct {
	step  string
	cause error
}

func (d *Deployer) execute(ctx context.Context, r *run) *stepFailure {
	for _, s := range d.steps {
		if err := ctx.Err(); err != nil {
			return &stepFailure{step: s.name, cause: err}
		}
		start := time.Now()
		err := s.run(ctx, r)
		r.metrics.ObserveStep(s.name, time.Since(start), err)
		if err != nil {
			return &stepFailure{step: s.name, cause: err}
		}
	}
	return nil
}

// writeMetrics writes the metrics of one run; the shared recorder keeps the totals.
func (d *Deployer) writeMetrics(dlog *deploylog.Logger, rec *metrics.Recorder) {
	var sb strings.Builder
	if err := rec.WriteText(&sb); err != nil {
		dlog.Warn("Could not render deployment metrics: " + err.Error())
		return
	}
	if err := util.WriteFile(d.opts.Output, MetricsFile, []byte(sb.String()), 0o644); err != nil {
		dlog.Warn("Could not write deployment metrics: " + err.Error())
	}
}

func (d *Deployer) displayPath(name string) string {
	if d.opts.OutputDir == "" {
		return name
	}
	return filepath.Join(d.opts.OutputDir, filepath.FromSlash(name))
}

// causeMessage returns the message of the innermost cause, without codes or the
// messages of the wrappers around it. trace keeps the full chain.
func causeMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	if ae, ok := err.(*apperrors.AppError); ok {
		return ae.Message
	}
	return err.Error()
}

// trace renders the error chain one cause per line, outermost first.
func trace(step string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %s failed", step)
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ae, ok := e.(*apperrors.AppError); ok {
			fmt.Fprintf(&b, "\n    at %s (%s)", ae.Message, ae.Code)
			if meta := ae.MetaString(); meta != "" {
				b.WriteString(" " + meta)
			}
			continue
		}
		fmt.Fprintf(&b, "\n    at %T: %s", e, e.Error())
	}
	return b.String()
}
