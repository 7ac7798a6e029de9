package integrations

import (
	"context"
	"io"
	"net/http"
	"time"

	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

// Prober checks that a service endpoint answers. A nil Prober disables probing.
type Prober interface {
	Probe(ctx context.Context, integration, target string, header http.Header) error
}

// HTTPProber issues a single GET and treats any non-5xx answer as reachable.
type HTTPProber struct {
	Client *http.Client
}

// NewHTTPProber returns a prober with a bounded per-request timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{Client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProber) Probe(ctx context.Context, integration, target string, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalid, integration+": build probe request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, integration+": service unreachable").
			WithMeta("integration", integration)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return apperrors.Newf(apperrors.CodeUnavailable, "%s: service answered %d", integration, resp.StatusCode).
			WithMeta("integration", integration)
	}
	return nil
}

func probe(ctx context.Context, p Prober, integration, target string, header http.Header) error {
	if p == nil {
		return nil
	}
	return p.Probe(ctx, integration, target, header)
}
