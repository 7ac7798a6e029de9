package integrations

import (
	"context"
	"net/http"
	"strings"
)

// Workflows are the n8n webhooks the site may trigger.
var Workflows = []string{
	"content-publishing",
	"subscription-management",
	"advertising-campaign",
	"email-marketing",
	"ai-orchestrator",
	"image-generation",
}

// N8N automates publishing, subscriptions and campaigns.
type N8N struct {
	URL    string
	APIKey string
	prober Prober
}

var _ Integration = (*N8N)(nil)

func (n *N8N) Name() string { return "n8n" }

func (n *N8N) Binding() Binding {
	return Binding{File: "n8n-client.js", Symbol: "workflowManager"}
}

func (n *N8N) Initialize(ctx context.Context) error {
	if err := firstError(
		requireURL(n.Name(), "N8N_URL", n.URL),
		requireValue(n.Name(), "N8N_API_KEY", n.APIKey),
	); err != nil {
		return err
	}
	header := http.Header{"X-N8N-API-KEY": []string{n.APIKey}}
	return probe(ctx, n.prober, n.Name(), strings.TrimRight(n.URL, "/")+"/healthz", header)
}

func (n *N8N) GenerateClientCode(context.Context) (string, error) {
	return renderClient(n.Binding(), struct {
		URL       string
		Workflows []string
	}{n.URL, Workflows})
}
