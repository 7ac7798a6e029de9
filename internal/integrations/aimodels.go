package integrations

import (
	"context"
	"sync"

	"google.golang.org/genai"

	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

// GeminiProbeModel is looked up when probing the Gemini API.
const GeminiProbeModel = "gemini-2.0-flash"

// AIModels routes editorial tasks across Claude, Mistral, Hume.ai and Gemini.
type AIModels struct {
	ClaudeKey  string
	MistralKey string
	HumeKey    string
	GeminiKey  string
	// WorkflowURL is where the browser orchestrator posts tasks.
	WorkflowURL string
	prober      Prober

	mu     sync.Mutex
	gemini *genai.Client
}

var _ Integration = (*AIModels)(nil)

func (a *AIModels) Name() string { return "aimodels" }

func (a *AIModels) Binding() Binding {
	return Binding{File: "ai-model-client.js", Symbol: "aiOrchestrator"}
}

// Initialize checks all four keys and builds the Gemini client. With probing on,
// the Gemini API is asked for a known model.
func (a *AIModels) Initialize(ctx context.Context) error {
	if err := firstError(
		requireValue(a.Name(), "CLAUDE_API_KEY", a.ClaudeKey),
		requireValue(a.Name(), "MISTRAL_API_KEY", a.MistralKey),
		requireValue(a.Name(), "HUME_AI_API_KEY", a.HumeKey),
		requireValue(a.Name(), "GEMINI_API_KEY", a.GeminiKey),
	); err != nil {
		return err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalid, "aimodels: create Gemini client").
			WithMeta("integration", a.Name())
	}

	a.mu.Lock()
	a.gemini = client
	a.mu.Unlock()

	if a.prober == nil {
		return nil
	}
	if _, err := client.Models.Get(ctx, GeminiProbeModel, nil); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "aimodels: Gemini API unreachable").
			WithMeta("integration", a.Name())
	}
	return nil
}

// Gemini returns the client built by Initialize, or nil before it ran.
func (a *AIModels) Gemini() *genai.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gemini
}

// TaskRoutes maps a task type to the model that handles it in the browser orchestrator.
var TaskRoutes = map[string]string{
	"content_generation":   "claude",
	"content_optimization": "mistral",
	"emotional_analysis":   "hume",
	"image_analysis":       "gemini",
	"default":              "claude",
}

func (a *AIModels) GenerateClientCode(context.Context) (string, error) {
	return renderClient(a.Binding(), struct {
		Routes      map[string]string
		FallbackURL string
	}{TaskRoutes, a.WorkflowURL})
}
