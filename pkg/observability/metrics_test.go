package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricValue digs a sample out of a gathered registry by name and labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	sample:
		for _, metric := range fam.GetMetric() {
			got := map[string]string{}
			for _, lp := range metric.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue sample
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_MutationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	tree := state.New(map[string]any{"tags": []any{"a"}})
	m.ObserveTree("doc-1", tree)

	tree.Set("color", "red")
	tree.Set("color", "blue")
	tree.Insert("tags", "b")
	tree.Set("synced", true, state.Remote())

	assert.Equal(t, 3.0, metricValue(t, reg, "arbor_mutations_total",
		map[string]string{"document": "doc-1", "verb": "set"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "arbor_mutations_total",
		map[string]string{"document": "doc-1", "verb": "insert"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "arbor_remote_mutations_total",
		map[string]string{"document": "doc-1"}))
}

func TestMetrics_HistoryGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	stack := history.NewStack()
	m.ObserveStack("doc-1", stack)
	ctx := context.Background()

	noop := func(ctx context.Context) error { return nil }
	stack.Add(history.Action{Name: "a", Undo: noop, Redo: noop})
	stack.Add(history.Action{Name: "b", Undo: noop, Redo: noop})
	stack.Undo(ctx)

	labels := map[string]string{"document": "doc-1"}
	assert.Equal(t, 2.0, metricValue(t, reg, "arbor_history_depth", labels))
	assert.Equal(t, 0.0, metricValue(t, reg, "arbor_history_cursor", labels))
	assert.Equal(t, 1.0, metricValue(t, reg, "arbor_history_replays_total",
		map[string]string{"document": "doc-1", "kind": "undo"}))
}
