// Package metrics exposes Prometheus metrics for the live activity service.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reservpark/internal/activity"
	"reservpark/internal/bridge"
	"reservpark/internal/deeplink"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	BridgeCalls    *prometheus.CounterVec
	DeepLinks      *prometheus.CounterVec
	ActivityActive prometheus.Gauge
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		BridgeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservpark_bridge_calls_total",
				Help: "Live activity bridge calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		DeepLinks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservpark_deeplinks_total",
				Help: "Deep links handled by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		ActivityActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reservpark_activity_active",
				Help: "1 while a live activity is believed to be running",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveState tracks the activity gauge. Register it with activity.Store.Observe.
func (m *Metrics) ObserveState(st activity.State) {
	if st.Active() {
		m.ActivityActive.Set(1)
	} else {
		m.ActivityActive.Set(0)
	}
}

// ObserveDeepLink counts handled deep links. Pass it to deeplink.WithObserver.
func (m *Metrics) ObserveDeepLink(action string, outcome deeplink.Outcome) {
	if action == "" {
		action = "unknown"
	}
	m.DeepLinks.WithLabelValues(action, string(outcome)).Inc()
}

// InstrumentBridge counts every call made through b.
func (m *Metrics) InstrumentBridge(b bridge.Bridge) bridge.Bridge {
	return &instrumented{next: b, calls: m.BridgeCalls}
}

type instrumented struct {
	next  bridge.Bridge
	calls *prometheus.CounterVec
}

func (i *instrumented) Start(ctx context.Context, req bridge.Request) bridge.Result {
	return i.count("start", i.next.Start(ctx, req))
}

func (i *instrumented) Update(ctx context.Context, id string, req bridge.Request) bridge.Result {
	return i.count("update", i.next.Update(ctx, id, req))
}

func (i *instrumented) Stop(ctx context.Context, id string) bridge.Result {
	return i.count("stop", i.next.Stop(ctx, id))
}

func (i *instrumented) count(op string, res bridge.Result) bridge.Result {
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	i.calls.WithLabelValues(op, outcome).Inc()
	return res
}
