// Package metrics exports engine events as Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
)

// Metrics implements core.Observer.
type Metrics struct {
	// Children bound into binding caches, by declaration kind.
	Bindings *prometheus.CounterVec

	// Switch and version-pick resolutions by kind and outcome.
	Resolutions *prometheus.CounterVec

	// Child fills by outcome: changed, unchanged or the error kind.
	Fills *prometheus.CounterVec

	// Time spent waiting for children to be displayed.
	WaitDuration *prometheus.HistogramVec
}

var _ core.Observer = (*Metrics)(nil)

// New registers the instruments with reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Bindings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "children_bound_total",
			Help:      "Children materialized into a binding cache by declaration kind",
		}, []string{"kind"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Switch and version pick resolutions by kind and outcome",
		}, []string{"kind", "outcome"}),

		Fills: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fills_total",
			Help:      "Child fill dispatches by outcome",
		}, []string{"outcome"}),

		WaitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_duration_seconds",
			Help:      "Time spent waiting for a child to be displayed before filling it",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return errors.KindOf(err).String()
}

func (m *Metrics) Bound(kind core.Kind, view, name string) {
	if m != nil {
		m.Bindings.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) Resolved(kind core.Kind, view, name string, err error) {
	if m != nil {
		m.Resolutions.WithLabelValues(kind.String(), outcome(err)).Inc()
	}
}

func (m *Metrics) FillDispatched(view, name string, changed bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.Fills.WithLabelValues(outcome(err)).Inc()
	case changed:
		m.Fills.WithLabelValues("changed").Inc()
	default:
		m.Fills.WithLabelValues("unchanged").Inc()
	}
}

func (m *Metrics) WaitFinished(view, name string, waited time.Duration, err error) {
	if m != nil {
		m.WaitDuration.WithLabelValues(outcome(err)).Observe(waited.Seconds())
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
