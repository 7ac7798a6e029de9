package integrations

import (
	"time"

	"github.com/luxequeer/deployer/pkg/config"
)

// ProbeTimeout bounds each reachability request.
const ProbeTimeout = 10 * time.Second

// FromConfig builds the six integrations in deployment order: supabase, huggingface,
// aimodels, n8n, nvidia, imagegen. Probing follows PROBE_INTEGRATIONS.
func FromConfig(cfg config.Config) []Integration {
	var p Prober
	if cfg.ProbeIntegrations {
		p = NewHTTPProber(ProbeTimeout)
	}
	return WithProber(cfg, p)
}

// WithProber is FromConfig with an explicit prober; nil disables probing.
func WithProber(cfg config.Config, p Prober) []Integration {
	return []Integration{
		&Supabase{URL: cfg.SupabaseURL, AnonKey: cfg.SupabaseAnonKey, prober: p},
		&HuggingFace{APIKey: cfg.HuggingFaceAPIKey, OrganizationID: cfg.HuggingFaceOrgID, prober: p},
		&AIModels{
			ClaudeKey:   cfg.ClaudeAPIKey,
			MistralKey:  cfg.MistralAPIKey,
			HumeKey:     cfg.HumeAIAPIKey,
			GeminiKey:   cfg.GeminiAPIKey,
			WorkflowURL: cfg.N8NURL,
			prober:      p,
		},
		&N8N{URL: cfg.N8NURL, APIKey: cfg.N8NAPIKey, prober: p},
		&Nvidia{APIKey: cfg.NvidiaAPIKey, ProjectID: cfg.NvidiaProjectID, prober: p},
		&ImageGeneration{WorkflowURL: cfg.N8NURL},
	}
}
