package generator

import (
	"time"

	"github.com/luxequeer/deployer/internal/content"
)

// Components flags which parts of the platform a deployment covered.
type Components struct {
	Website            bool `json:"website"`
	Supabase           bool `json:"supabase"`
	HuggingFace        bool `json:"huggingFace"`
	AIModels           bool `json:"aiModels"`
	N8NWorkflows       bool `json:"n8nWorkflows"`
	NvidiaDigitalHuman bool `json:"nvidiaDigitalHuman"`
	ImageGeneration    bool `json:"imageGeneration"`
}

// AllComponents is what a successful run reports.
func AllComponents() Components {
	return Components{true, true, true, true, true, true, true}
}

// Summary is the machine-readable deployment record.
type Summary struct {
	URL            string     `json:"url"`
	DeploymentDate string     `json:"deploymentDate"`
	Components     Components `json:"components"`
	Features       []string   `json:"features"`
}

// NewSummary builds the record for a successful run at t.
func NewSummary(c *content.Catalog, url string, t time.Time) Summary {
	c = catalogOrDefault(c)
	return Summary{
		URL:            url,
		DeploymentDate: Timestamp(t),
		Components:     AllComponents(),
		Features:       append([]string(nil), c.Features...),
	}
}

// SummaryJSON renders deployment_summary.json with two-space indentation.
func SummaryJSON(s Summary) (Artifact, error) {
	b, err := marshal(s, "  ")
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: SummaryPath, Content: b}, nil
}

// ReportInput extends the summary with run details shown in the report.
type ReportInput struct {
	Summary
	PublishedTo string
	Minified    []string
}

// Report renders deployment_report.md.
func Report(in ReportInput) (Artifact, error) {
	b, err := render("report.md.tmpl", in)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: ReportPath, Content: b}, nil
}
