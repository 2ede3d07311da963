package metrics_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
	"github.com/go-drift/widgetry/pkg/metrics"
	widgettest "github.com/go-drift/widgetry/pkg/testing"
	"github.com/go-drift/widgetry/pkg/widgets"
)

func form() *core.Template {
	body := core.Switch("kind").
		Case("short", widgets.TextInputOf("#short")).
		Default(widgets.TextInputOf("#long")).
		MustBuild()
	return core.NewView("Form", core.WithFillStrategy(core.WaitStrategy{Timeout: time.Second})).
		Add("kind", widgets.TextInputOf("#kind")).
		Add("body", body).
		MustBuild()
}

func formPage() *widgettest.Page {
	return widgettest.NewPage(
		widgettest.El("kind").Tag("input").WithValue("short"),
		widgettest.El("short").Tag("input"),
		widgettest.El("long").Tag("input"),
	)
}

func TestObserverCountsEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "widgetry")
	view := widgettest.NewPageTester(t, formPage(), core.WithObserver(m)).View(form())

	changed, err := view.Fill(context.Background(), map[string]any{"kind": "short", "body": "hi"})
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Bindings.WithLabelValues("widget")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("switch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fills.WithLabelValues("unchanged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fills.WithLabelValues("changed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.WaitDuration))
}

func TestOutcomeUsesErrorKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "widgetry")

	m.Resolved(core.KindVersionPick, "Page", "save", errors.Errorf("op", errors.KindNoApplicableVersion, "save", "too old"))
	m.FillDispatched("Page", "name", false, errors.New("boom"))
	m.WaitFinished("Page", "name", 2*time.Second, errors.Errorf("op", errors.KindTimeout, "name", "late"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("version_pick", "no_applicable_version")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fills.WithLabelValues("unknown")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.WaitDuration, "widgetry_wait_duration_seconds"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Bound(core.KindWidget, "Page", "x")
		m.FillDispatched("Page", "x", true, nil)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "widgetry")
	m.Bound(core.KindView, "Page", "nested")

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `widgetry_children_bound_total{kind="view"} 1`))
}
