package integrations

import (
	"context"
	"net/http"
	"strings"
)

// Supabase backs content, images and authentication.
type Supabase struct {
	URL     string
	AnonKey string
	prober  Prober
}

var _ Integration = (*Supabase)(nil)

func (s *Supabase) Name() string { return "supabase" }

func (s *Supabase) Binding() Binding {
	return Binding{File: "supabase-client.js", Symbol: "supabase"}
}

func (s *Supabase) Initialize(ctx context.Context) error {
	if err := firstError(
		requireURL(s.Name(), "SUPABASE_URL", s.URL),
		requireValue(s.Name(), "SUPABASE_ANON_KEY", s.AnonKey),
	); err != nil {
		return err
	}
	header := http.Header{"apikey": []string{s.AnonKey}}
	return probe(ctx, s.prober, s.Name(), strings.TrimRight(s.URL, "/")+"/rest/v1/", header)
}

func (s *Supabase) GenerateClientCode(context.Context) (string, error) {
	return renderClient(s.Binding(), struct {
		URL     string
		AnonKey string
	}{s.URL, s.AnonKey})
}
