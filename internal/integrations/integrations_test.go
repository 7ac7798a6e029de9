package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxequeer/deployer/internal/generator"
	"github.com/luxequeer/deployer/pkg/config"
	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

func testConfig() config.Config {
	return config.Config{
		SupabaseURL:       "https://example.supabase.co",
		SupabaseAnonKey:   "example-anon-key",
		HuggingFaceAPIKey: "example-api-key",
		HuggingFaceOrgID:  "luxe-queer-magazine",
		ClaudeAPIKey:      "example-claude-key",
		MistralAPIKey:     "example-mistral-key",
		HumeAIAPIKey:      "example-hume-key",
		GeminiAPIKey:      "example-gemini-key",
		N8NURL:            "http://localhost:5678",
		N8NAPIKey:         "example-n8n-key",
		NvidiaAPIKey:      "example-nvidia-key",
		NvidiaProjectID:   "luxe-queer-octavia",
	}
}

func TestRegistryOrderAndBindings(t *testing.T) {
	all := FromConfig(testConfig())

	type row struct{ name, path, marker, line string }
	var got []row
	for _, in := range all {
		b := in.Binding()
		got = append(got, row{in.Name(), b.Path(), b.Marker(), b.ImportLine()})
	}

	require.Equal(t, []row{
		{"supabase", "js/supabase-client.js", "import { supabase } from", "import { supabase } from './supabase-client.js';"},
		{"huggingface", "js/huggingface-client.js", "import { octaviaVoice } from", "import { octaviaVoice } from './huggingface-client.js';"},
		{"aimodels", "js/ai-model-client.js", "import { aiOrchestrator } from", "import { aiOrchestrator } from './ai-model-client.js';"},
		{"n8n", "js/n8n-client.js", "import { workflowManager } from", "import { workflowManager } from './n8n-client.js';"},
		{"nvidia", "js/nvidia-client.js", "import { octaviaDigitalHuman } from", "import { octaviaDigitalHuman } from './nvidia-client.js';"},
		{"imagegen", "js/image-generation-client.js", "import { imageGenerator } from", "import { imageGenerator } from './image-generation-client.js';"},
	}, got)
}

func TestInitializeWithoutProbing(t *testing.T) {
	for _, in := range FromConfig(testConfig()) {
		require.NoError(t, in.Initialize(context.Background()), in.Name())
	}
}

func TestAIModelsBuildsGeminiClient(t *testing.T) {
	a := &AIModels{ClaudeKey: "c", MistralKey: "m", HumeKey: "h", GeminiKey: "g", WorkflowURL: "http://localhost:5678"}
	require.Nil(t, a.Gemini())
	require.NoError(t, a.Initialize(context.Background()))
	require.NotNil(t, a.Gemini())
}

func TestInitializeRejectsBadSettings(t *testing.T) {
	cases := map[string]func(*config.Config){
		"supabase":    func(c *config.Config) { c.SupabaseAnonKey = "" },
		"huggingface": func(c *config.Config) { c.HuggingFaceOrgID = "" },
		"aimodels":    func(c *config.Config) { c.GeminiAPIKey = "" },
		"n8n":         func(c *config.Config) { c.N8NURL = "localhost:5678" },
		"nvidia":      func(c *config.Config) { c.NvidiaProjectID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)

			var failed []string
			for _, in := range FromConfig(cfg) {
				err := in.Initialize(context.Background())
				if err == nil {
					continue
				}
				require.True(t, apperrors.IsCode(err, apperrors.CodeInvalid), err.Error())
				failed = append(failed, in.Name())
			}
			require.Contains(t, failed, name)
		})
	}
}

func TestSupabaseURLMustBeHTTP(t *testing.T) {
	s := &Supabase{URL: "ftp://example.supabase.co", AnonKey: "k"}
	err := s.Initialize(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalid))
	v, ok := apperrors.MetaOf(err, "integration")
	require.True(t, ok)
	require.Equal(t, "supabase", v)
}

func TestClientCodeParses(t *testing.T) {
	ctx := context.Background()
	for _, in := range FromConfig(testConfig()) {
		code, err := in.GenerateClientCode(ctx)
		require.NoError(t, err, in.Name())
		require.Contains(t, code, "export const "+in.Binding().Symbol+" = ", in.Name())
		require.Contains(t, code, "from './integration-config.js';", in.Name())
		require.NoError(t, generator.CheckScript(ctx, []byte(code)), in.Name())
	}
}

func TestClientCodeKeepsSecretsServerSide(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	for _, in := range FromConfig(cfg) {
		code, err := in.GenerateClientCode(ctx)
		require.NoError(t, err)
		for _, secret := range []string{cfg.HuggingFaceAPIKey, cfg.ClaudeAPIKey, cfg.GeminiAPIKey, cfg.N8NAPIKey, cfg.NvidiaAPIKey} {
			require.NotContains(t, code, secret, in.Name())
		}
	}
}

func TestHTTPProber(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		if strings.HasSuffix(r.URL.Path, "/down") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := &HTTPProber{Client: srv.Client()}
	ctx := context.Background()

	require.NoError(t, p.Probe(ctx, "supabase", srv.URL+"/rest/v1/", http.Header{"apikey": []string{"k"}}))
	require.Equal(t, "k", gotKey)

	err := p.Probe(ctx, "supabase", srv.URL+"/down", nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnavailable))

	srv.Close()
	err = p.Probe(ctx, "supabase", srv.URL, nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnavailable))
}

type recordingProber struct {
	targets []string
}

func (r *recordingProber) Probe(_ context.Context, _ string, target string, _ http.Header) error {
	r.targets = append(r.targets, target)
	return nil
}

func TestProbingUsesServiceEndpoints(t *testing.T) {
	rec := &recordingProber{}
	ctx := context.Background()
	for _, in := range WithProber(testConfig(), rec) {
		if in.Name() == "aimodels" {
			continue
		}
		require.NoError(t, in.Initialize(ctx))
	}
	require.Equal(t, []string{
		"https://example.supabase.co/rest/v1/",
		"https://huggingface.co/api/organizations/luxe-queer-magazine/overview",
		"http://localhost:5678/healthz",
		"https://integrate.api.nvidia.com/v1/models",
	}, rec.targets)
}
