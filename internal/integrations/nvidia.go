package integrations

import (
	"context"
	"net/http"
)

// Animations available to the digital human, first one plays on load.
var Animations = []string{"idle-pose", "runway-strut", "ballroom-vogue", "signature-wink"}

// Nvidia renders Octavia as a digital human.
type Nvidia struct {
	APIKey    string
	ProjectID string
	prober    Prober
}

var _ Integration = (*Nvidia)(nil)

func (n *Nvidia) Name() string { return "nvidia" }

func (n *Nvidia) Binding() Binding {
	return Binding{File: "nvidia-client.js", Symbol: "octaviaDigitalHuman"}
}

func (n *Nvidia) Initialize(ctx context.Context) error {
	if err := firstError(
		requireValue(n.Name(), "NVIDIA_API_KEY", n.APIKey),
		requireValue(n.Name(), "NVIDIA_PROJECT_ID", n.ProjectID),
	); err != nil {
		return err
	}
	header := http.Header{"Authorization": []string{"Bearer " + n.APIKey}}
	return probe(ctx, n.prober, n.Name(), "https://integrate.api.nvidia.com/v1/models", header)
}

func (n *Nvidia) GenerateClientCode(context.Context) (string, error) {
	return renderClient(n.Binding(), struct {
		ProjectID  string
		Animations []string
	}{n.ProjectID, Animations})
}
