// Package telemetry wraps structured logging and metrics so every other
// package in the pipeline depends on a narrow interface instead of a
// concrete logging or metrics library.
package telemetry

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// Logger exposes the logging capability required by pipeline components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a function into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Nop is a Logger that discards everything. Useful as a zero value in tests.
var Nop Logger = LoggerFunc(nil)

// Metrics is the bounded-cardinality counter/gauge surface the pipeline
// reports against. It is backed by a private prometheus.Registry (never the
// global DefaultRegisterer) so creating multiple sessions in tests never
// collides on metric names, and so the core never needs to expose an HTTP
// /metrics endpoint itself — scraping, if any, is the embedding
// application's concern.
type Metrics struct {
	Registry *prometheus.Registry

	ParseErrorsTotal                  prometheus.Counter
	EventsProcessedTotal              prometheus.Counter
	EncountersStartedTotal            prometheus.Counter
	EncountersFinishedTotal           prometheus.Counter
	ShieldAttributionsTotal           prometheus.Counter
	ShieldAttributionsUncreditedTotal prometheus.Counter
	AlertsFiredTotal                  prometheus.Counter
	TailFileResetsTotal               prometheus.Counter
	OverlayDropsTotal                 prometheus.Counter

	ActiveEffects prometheus.Gauge
	RaidSlotsUsed prometheus.Gauge
}

// NewMetrics constructs and registers the full counter/gauge set against a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ParseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_parse_errors_total",
			Help: "Lines that failed to parse into a CombatEvent.",
		}),
		EventsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_events_processed_total",
			Help: "CombatEvents run through the event processor.",
		}),
		EncountersStartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_encounters_started_total",
			Help: "Encounters that entered InCombat.",
		}),
		EncountersFinishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_encounters_finished_total",
			Help: "Encounters that reached Finished.",
		}),
		ShieldAttributionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_shield_attributions_total",
			Help: "Damage events with dmg_absorbed > 0 credited to a shield source.",
		}),
		ShieldAttributionsUncreditedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_shield_attributions_uncredited_total",
			Help: "Damage events with dmg_absorbed > 0 but no active shield instance.",
		}),
		AlertsFiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_alerts_fired_total",
			Help: "Alerts fired by the effect tracker.",
		}),
		TailFileResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_tail_file_resets_total",
			Help: "Times the log tailer detected rotation/truncation and restarted from offset 0.",
		}),
		OverlayDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "combatlog_overlay_drops_total",
			Help: "Overlay payloads dropped because the router queue or a subscriber channel was full.",
		}),
		ActiveEffects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "combatlog_active_effects",
			Help: "Active effect instances currently tracked by the effect tracker.",
		}),
		RaidSlotsUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "combatlog_raid_slots_used",
			Help: "Raid slot registry entries currently occupied.",
		}),
	}

	reg.MustRegister(
		m.ParseErrorsTotal,
		m.EventsProcessedTotal,
		m.EncountersStartedTotal,
		m.EncountersFinishedTotal,
		m.ShieldAttributionsTotal,
		m.ShieldAttributionsUncreditedTotal,
		m.AlertsFiredTotal,
		m.TailFileResetsTotal,
		m.OverlayDropsTotal,
		m.ActiveEffects,
		m.RaidSlotsUsed,
	)
	return m
}
