package toolmetrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/testutil"
)

// counterValue sums the samples of family name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
	}
	return total
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}

func TestObserveParse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	p := tooluse.NewNativeParser(m.ParserOption())
	_, err = p.Parse(tooluse.NativeCall{ID: "1", Name: "attempt_completion", Arguments: `{"result":"ok","colour":"red"}`})
	require.NoError(t, err)
	_, err = p.Parse(tooluse.NativeCall{ID: "2", Name: "rm_rf", Arguments: `{}`})
	require.Error(t, err)
	_, err = p.Parse(tooluse.NativeCall{ID: "3", Name: "list_files", Arguments: `{not json`})
	require.Error(t, err)

	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_native_parses_total",
		map[string]string{"tool": "attempt_completion", "status": "ok", "typed": "true"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_native_parses_total",
		map[string]string{"tool": "unknown", "status": "unknown_tool"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_native_parses_total",
		map[string]string{"tool": "list_files", "status": "malformed_arguments"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_dropped_params_total",
		map[string]string{"tool": "attempt_completion"}), 0)
}

func TestObserveDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.ObserveDispatch(ctx, tooluse.DispatchSummary{Tool: tooluse.ListFiles}, time.Millisecond)
	m.ObserveDispatch(ctx, tooluse.DispatchSummary{Tool: tooluse.ReadFile, Native: true,
		Error: &tooluse.ClientError{Reason: "bad", Err: tooluse.ErrInvalidParams}}, time.Millisecond)
	m.ObserveDispatch(ctx, tooluse.DispatchSummary{Tool: tooluse.ReadFile, Native: true,
		Error: fmt.Errorf("%w: slow", tooluse.ErrTimeout)}, time.Second)
	m.ObserveDispatch(ctx, tooluse.DispatchSummary{Tool: tooluse.ListFiles, Partial: true}, 0)

	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_dispatches_total",
		map[string]string{"tool": "list_files", "protocol": "legacy", "result": "ok"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_dispatches_total",
		map[string]string{"tool": "read_file", "protocol": "native", "result": "rejected"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_dispatches_total",
		map[string]string{"tool": "read_file", "result": "timeout"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_partial_updates_total",
		map[string]string{"tool": "list_files"}), 0)
	assert.InDelta(t, 3, counterValue(t, reg, "tooluse_dispatch_duration_seconds", nil), 0)
}

func TestRegistryOption(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	tools := tooluse.NewRegistry(m.RegistryOption())
	tools.Register(&testutil.MockHandler{NameVal: tooluse.ListFiles})
	cb := &testutil.RecordingCallbacks{}
	task := &testutil.FakeTask{}

	require.NoError(t, tools.Dispatch(context.Background(), task,
		&tooluse.ToolUse{ID: "1", Name: tooluse.ListFiles, Params: tooluse.LegacyParams{}}, cb))
	err = tools.Dispatch(context.Background(), task,
		&tooluse.ToolUse{ID: "2", Name: tooluse.ReadFile, Params: tooluse.LegacyParams{}}, cb)
	require.ErrorIs(t, err, tooluse.ErrToolNotFound)

	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_dispatches_total",
		map[string]string{"tool": "list_files", "result": "ok"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tooluse_dispatches_total",
		map[string]string{"tool": "read_file", "result": "not_found"}), 0)
}
