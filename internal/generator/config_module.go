package generator

import "fmt"

// ConfigInput is the subset of deployment settings the browser is allowed to see.
type ConfigInput struct {
	SupabaseURL      string
	SupabaseAnonKey  string
	HuggingFaceOrgID string
	N8NURL           string
}

type integrationConfig struct {
	Supabase struct {
		URL     string `json:"url"`
		AnonKey string `json:"anonKey"`
	} `json:"supabase"`
	HuggingFace struct {
		OrganizationID string `json:"organizationId"`
	} `json:"huggingFace"`
	AIModels enabled `json:"aiModels"`
	N8N      struct {
		URL string `json:"url"`
	} `json:"n8n"`
	Nvidia          enabled `json:"nvidia"`
	ImageGeneration enabled `json:"imageGeneration"`
}

type enabled struct {
	Enabled bool `json:"enabled"`
}

// IntegrationConfig renders js/integration-config.js, an ES module whose default
// export is the browser-side integration configuration.
func IntegrationConfig(in ConfigInput) (Artifact, error) {
	var cfg integrationConfig
	cfg.Supabase.URL = in.SupabaseURL
	cfg.Supabase.AnonKey = in.SupabaseAnonKey
	cfg.HuggingFace.OrganizationID = in.HuggingFaceOrgID
	cfg.AIModels.Enabled = true
	cfg.N8N.URL = in.N8NURL
	cfg.Nvidia.Enabled = true
	cfg.ImageGeneration.Enabled = true

	body, err := marshal(cfg, "  ")
	if err != nil {
		return Artifact{}, err
	}

	src := fmt.Sprintf("// Auto-generated integration configuration\nconst INTEGRATION_CONFIG = %s;\n\nexport default INTEGRATION_CONFIG;", body)
	return Artifact{Path: ConfigModulePath, Content: []byte(src)}, nil
}
