// Package toolmetrics exports Prometheus metrics for native parsing and tool dispatch.
//
//	m, err := toolmetrics.New(prometheus.DefaultRegisterer)
//	parser := tooluse.NewNativeParser(m.ParserOption())
//	reg := tooluse.NewRegistry(m.RegistryOption())
package toolmetrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skosovsky/tooluse"
)

const namespace = "tooluse"

// unknownTool replaces tool labels outside the closed name set to bound cardinality.
const unknownTool = "unknown"

// Metrics holds the collectors. Create it with New.
type Metrics struct {
	parses     *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	partials   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "native_parses_total",
			Help:      "Native function calls parsed, by tool and outcome.",
		}, []string{"tool", "status", "typed"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_params_total",
			Help:      "Argument keys dropped because they are not known parameter names.",
		}, []string{"tool"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Complete tool invocations dispatched, by tool, protocol and result.",
		}, []string{"tool", "protocol", "result"}),
		partials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_updates_total",
			Help:      "Streaming snapshots handed to partial handlers.",
		}, []string{"tool"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of complete tool invocations, approval waits included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"tool"}),
	}
	for _, c := range []prometheus.Collector{m.parses, m.dropped, m.dispatches, m.partials, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ParserOption wires ObserveParse into a NativeParser.
func (m *Metrics) ParserOption() tooluse.ParserOption {
	return tooluse.WithOnParse(m.ObserveParse)
}

// RegistryOption wires ObserveDispatch into a Registry.
func (m *Metrics) RegistryOption() tooluse.RegistryOption {
	return tooluse.WithOnAfterDispatch(m.ObserveDispatch)
}

// ObserveParse records one native parse.
func (m *Metrics) ObserveParse(call tooluse.NativeCall, out tooluse.ParseOutcome) {
	tool := toolLabel(call.Name)
	m.parses.WithLabelValues(tool, string(out.Status), boolLabel(out.Typed)).Inc()
	if n := len(out.Dropped); n > 0 {
		m.dropped.WithLabelValues(tool).Add(float64(n))
	}
}

// ObserveDispatch records one dispatch.
func (m *Metrics) ObserveDispatch(_ context.Context, s tooluse.DispatchSummary, d time.Duration) {
	tool := toolLabel(string(s.Tool))
	if s.Partial {
		m.partials.WithLabelValues(tool).Inc()
		return
	}
	protocol := "legacy"
	if s.Native {
		protocol = "native"
	}
	m.dispatches.WithLabelValues(tool, protocol, resultLabel(s.Error)).Inc()
	m.duration.WithLabelValues(tool).Observe(d.Seconds())
}

func toolLabel(name string) string {
	if tooluse.IsToolName(name) {
		return name
	}
	return unknownTool
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tooluse.ErrToolNotFound):
		return "not_found"
	case errors.Is(err, tooluse.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case tooluse.IsClientError(err):
		return "rejected"
	default:
		return "error"
	}
}
