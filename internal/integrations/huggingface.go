package integrations

import (
	"context"
	"net/http"
)

const huggingFaceInferenceURL = "https://api-inference.huggingface.co/models"

// HuggingFace hosts Octavia's voice model and the content classifier.
type HuggingFace struct {
	APIKey         string
	OrganizationID string
	prober         Prober
}

var _ Integration = (*HuggingFace)(nil)

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Binding() Binding {
	return Binding{File: "huggingface-client.js", Symbol: "octaviaVoice"}
}

func (h *HuggingFace) Initialize(ctx context.Context) error {
	if err := firstError(
		requireValue(h.Name(), "HUGGING_FACE_API_KEY", h.APIKey),
		requireValue(h.Name(), "HUGGING_FACE_ORG_ID", h.OrganizationID),
	); err != nil {
		return err
	}
	header := http.Header{"Authorization": []string{"Bearer " + h.APIKey}}
	return probe(ctx, h.prober, h.Name(), "https://huggingface.co/api/organizations/"+h.OrganizationID+"/overview", header)
}

// The API key stays server-side; the browser module only learns the organisation.
func (h *HuggingFace) GenerateClientCode(context.Context) (string, error) {
	return renderClient(h.Binding(), struct {
		OrganizationID  string
		VoiceModel      string
		ClassifierModel string
		InferenceURL    string
		MaxTokens       int
	}{h.OrganizationID, "octavia-voice", "content-classifier", huggingFaceInferenceURL, 250})
}
