package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/luxequeer/deployer/internal/orchestrator"
	"github.com/luxequeer/deployer/internal/repository"
	"github.com/luxequeer/deployer/internal/services"
	"github.com/luxequeer/deployer/pkg/database"
	"github.com/luxequeer/deployer/pkg/logger"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1E90FF")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8A2BE2")).
			Padding(0, 2)
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E8B57"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC143C"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

var (
	plain    bool
	noRecord bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the deployment against WEBSITE_DIR",
	Long: `Run the full deployment: initialize integrations, patch the site scripts,
minify into build/, then write the summary and report into OUTPUT_DIR.

When DATABASE_URL is set the run is also recorded in the deployments table.`,
	RunE: runDeploy,
}

func init() {
	runCmd.Flags().BoolVar(&plain, "plain", false, "print the report as markdown instead of rendering it")
	runCmd.Flags().BoolVar(&noRecord, "no-record", false, "do not record the run even if DATABASE_URL is set")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bannerStyle.Render("Luxe Queer · deployment"))
	fmt.Fprintln(out, dimStyle.Render("site "+cfg.WebsiteDir+"  →  output "+cfg.OutputDir))

	deployer, err := orchestrator.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	rec, err := openRecorder(ctx)
	if err != nil {
		return err
	}

	res := deployer.Run(ctx)
	rec.finish(res)

	if res.Report != "" {
		fmt.Fprintln(out, renderReport(res.Report))
	}
	if !res.Success {
		fmt.Fprintln(out, failStyle.Render(fmt.Sprintf("✗ failed at %s: %s", res.FailedStep, res.Error)))
		fmt.Fprintln(out, dimStyle.Render("log: "+res.LogFile))
		return fmt.Errorf("deployment failed")
	}

	fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ deployed in %.2fs", res.Duration)))
	fmt.Fprintln(out, dimStyle.Render("summary: "+res.SummaryPath))
	fmt.Fprintln(out, dimStyle.Render("report:  "+res.ReportPath))
	if res.PublishedTo != "" {
		fmt.Fprintln(out, dimStyle.Render("published: "+res.PublishedTo))
	}
	return nil
}

func renderReport(md string) string {
	if plain {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

// recorder mirrors a CLI run into the deployments table. The zero value records nothing.
type recorder struct {
	ctx context.Context
	svc services.DeploymentService
	id  uuid.UUID
}

func openRecorder(ctx context.Context) (*recorder, error) {
	if noRecord || cfg.DatabaseURL == "" {
		return &recorder{}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	svc := deploymentService(db)

	d, err := svc.CreateDeployment(ctx, services.CreateDeploymentInput{Trigger: "cli"})
	if err != nil {
		return nil, err
	}
	if err := svc.MarkRunning(ctx, d.ID); err != nil {
		return nil, err
	}
	logger.L().Info("recording deployment", zap.String("deployment_id", d.ID.String()))
	return &recorder{ctx: context.WithoutCancel(ctx), svc: svc, id: d.ID}, nil
}

func deploymentService(db *gorm.DB) services.DeploymentService {
	return services.NewDeploymentService(repository.NewDeploymentRepository(db), nil,
		services.WithStaleAfter(cfg.DeploymentStaleAfter))
}

func (r *recorder) finish(res orchestrator.Result) {
	if r.svc == nil {
		return
	}
	if err := r.svc.Complete(r.ctx, r.id, res); err != nil {
		logger.L().Error("failed to record deployment result",
			zap.String("deployment_id", r.id.String()), zap.Error(err))
	}
}
