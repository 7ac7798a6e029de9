package integrations

import "context"

// BrandElements are attached to every concept brief.
var BrandElements = []string{"blue lipstick", "editorial lighting", "luxury textures"}

// ImageGeneration produces on-brand imagery. It has no credentials of its own and
// runs through the workflow host.
type ImageGeneration struct {
	WorkflowURL string
}

var _ Integration = (*ImageGeneration)(nil)

func (g *ImageGeneration) Name() string { return "imagegen" }

func (g *ImageGeneration) Binding() Binding {
	return Binding{File: "image-generation-client.js", Symbol: "imageGenerator"}
}

func (g *ImageGeneration) Initialize(context.Context) error {
	return requireURL(g.Name(), "N8N_URL", g.WorkflowURL)
}

func (g *ImageGeneration) GenerateClientCode(context.Context) (string, error) {
	return renderClient(g.Binding(), struct {
		FallbackURL   string
		BrandElements []string
		DefaultCount  int
	}{g.WorkflowURL, BrandElements, 6})
}
