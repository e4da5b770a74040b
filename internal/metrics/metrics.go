package metrics

import (
	"log/slog"

	"github.com/aretw0/spellout/internal/logging"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors counts derivation progress. It is fed through lifecycle hooks
// and registered on a caller-supplied registry.
type Collectors struct {
	StateEnters      *prometheus.CounterVec
	Lexicalizations  *prometheus.CounterVec
	DerivationsEnded *prometheus.CounterVec

	logger *slog.Logger
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer, logger *slog.Logger) (*Collectors, error) {
	c := &Collectors{
		StateEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spellout_state_enter_total",
				Help: "Total number of derivation state entries",
			},
			[]string{"state"},
		),
		Lexicalizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spellout_lexicalizations_total",
				Help: "Total number of committed lexicalizations, including nodes lexicalized to none",
			},
			[]string{"moved"},
		),
		DerivationsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spellout_derivations_finished_total",
				Help: "Total number of derivations reaching a terminal state",
			},
			[]string{"outcome"},
		),
		logger: logger,
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	for _, col := range []prometheus.Collector{c.StateEnters, c.Lexicalizations, c.DerivationsEnded} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns lifecycle hooks that log each event and record it.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(e *domain.StateEvent) {
			c.logger.Debug("state_enter", "state", e.State, "round", e.Round)
			c.StateEnters.WithLabelValues(string(e.State)).Inc()
			if e.State == domain.StateSuccess {
				c.DerivationsEnded.WithLabelValues("success").Inc()
			}
		},
		OnLexicalize: func(e *domain.LexicalizeEvent) {
			c.logger.Debug("lexicalize", "node", e.Node, "entry", e.Entry, "moved", e.Moved)
			moved := "false"
			if e.Moved != "" {
				moved = "true"
			}
			c.Lexicalizations.WithLabelValues(moved).Inc()
		},
		OnFailure: func(e *domain.FailureEvent) {
			c.logger.Info("derivation_failed", "reason", e.Reason, "round", e.Round)
			c.DerivationsEnded.WithLabelValues("failure").Inc()
		},
	}
}
