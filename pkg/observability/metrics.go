package observability

import (
	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for document activity.
type Metrics struct {
	mutations *prometheus.CounterVec
	remote    *prometheus.CounterVec
	depth     *prometheus.GaugeVec
	cursor    *prometheus.GaugeVec
	replays   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on the given registerer.
// Pass prometheus.DefaultRegisterer for the ordinary global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_mutations_total",
				Help: "Total number of tree mutations by verb",
			},
			[]string{"document", "verb"},
		),
		remote: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_remote_mutations_total",
				Help: "Total number of remotely tagged mutations",
			},
			[]string{"document"},
		),
		depth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbor_history_depth",
				Help: "Number of actions on the history stack",
			},
			[]string{"document"},
		),
		cursor: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbor_history_cursor",
				Help: "Current history cursor position",
			},
			[]string{"document"},
		),
		replays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_history_replays_total",
				Help: "Total number of undo/redo replays",
			},
			[]string{"document", "kind"},
		),
	}
	reg.MustRegister(m.mutations, m.remote, m.depth, m.cursor, m.replays)
	return m
}

// ObserveTree counts every mutation of the tree under the document label.
func (m *Metrics) ObserveTree(document string, tree *state.Tree) {
	for _, verb := range state.Verbs {
		v := string(verb)
		tree.Events().On(state.WildcardName(verb), func(_ string, mut state.Mutation) {
			m.mutations.WithLabelValues(document, v).Inc()
			if mut.Remote {
				m.remote.WithLabelValues(document).Inc()
			}
		})
	}
}

// ObserveStack tracks the stack's depth and cursor and counts replays.
func (m *Metrics) ObserveStack(document string, stack *history.Stack) {
	stack.Events().On("change", func(_ string, ev history.StackEvent) {
		m.depth.WithLabelValues(document).Set(float64(ev.Length))
		m.cursor.WithLabelValues(document).Set(float64(ev.Cursor))

		switch ev.Kind {
		case history.EventUndo, history.EventRedo:
			m.replays.WithLabelValues(document, string(ev.Kind)).Inc()
		}
	})
}
