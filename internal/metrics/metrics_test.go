package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.ObserveStep("initialize", 120*time.Millisecond, nil)
	r.ObserveStep("minify", 2*time.Second, errors.New("terser exploded"))
	r.RunFinished(false)
	r.RunFinished(true)
	r.ScriptMinified()
	r.ScriptMinified()

	require.Equal(t, float64(1), testutil.ToFloat64(r.stepFailures.WithLabelValues("minify")))
	require.Equal(t, float64(0), testutil.ToFloat64(r.stepFailures.WithLabelValues("initialize")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.runs.WithLabelValues("failed")))
	require.Equal(t, float64(2), testutil.ToFloat64(r.scripts))
	require.Equal(t, 2, testutil.CollectAndCount(r.stepDuration))
}

func TestWriteText(t *testing.T) {
	r := New()
	r.ObserveStep("report", time.Millisecond, nil)
	r.RunFinished(true)

	var sb strings.Builder
	require.NoError(t, r.WriteText(&sb))

	out := sb.String()
	require.Contains(t, out, "# TYPE luxequeer_deploy_step_duration_seconds histogram")
	require.Contains(t, out, `luxequeer_deploy_step_duration_seconds_count{step="report"} 1`)
	require.Contains(t, out, `luxequeer_deploy_runs_total{outcome="succeeded"} 1`)
}

func TestHandler(t *testing.T) {
	r := New()
	r.RunFinished(true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "luxequeer_deploy_runs_total")
}

func TestChildForwardsToParent(t *testing.T) {
	parent := New()
	parent.RunFinished(false)

	child := parent.Child()
	child.ObserveStep("publish", time.Second, errors.New("access denied"))
	child.ObjectPublished()
	child.RunFinished(true)

	require.Equal(t, float64(0), testutil.ToFloat64(child.runs.WithLabelValues("failed")))
	require.Equal(t, float64(1), testutil.ToFloat64(child.runs.WithLabelValues("succeeded")))
	require.Equal(t, float64(1), testutil.ToFloat64(parent.runs.WithLabelValues("failed")))
	require.Equal(t, float64(1), testutil.ToFloat64(parent.runs.WithLabelValues("succeeded")))
	require.Equal(t, float64(1), testutil.ToFloat64(parent.stepFailures.WithLabelValues("publish")))
	require.Equal(t, float64(1), testutil.ToFloat64(parent.uploads))
	require.Equal(t, float64(1), testutil.ToFloat64(child.uploads))
}
