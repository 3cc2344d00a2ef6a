// Command combatlogd wires the combat log pipeline end to end: directory
// index, tailer, parser, session processor, signal bus, effect tracker,
// raid registry, and overlay router. It is the minimal process entry
// point; the richer CLI surface (subcommands, interactive TUI) is out of
// scope, per the design notes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"combatlog/internal/config"
	"combatlog/internal/dirindex"
	"combatlog/internal/effects"
	"combatlog/internal/intern"
	"combatlog/internal/model"
	"combatlog/internal/overlay"
	"combatlog/internal/parser"
	"combatlog/internal/raid"
	"combatlog/internal/session"
	"combatlog/internal/signalbus"
	"combatlog/internal/tail"
	"combatlog/internal/telemetry"
)

// directoryScanInterval is how often the directory index re-scans for new
// or removed combat log files.
const directoryScanInterval = 2 * time.Second

func main() {
	cfg := config.Load()

	log.Println("================================")
	log.Println(" combatlogd - combat log pipeline")
	log.Println("================================")
	log.Printf("log directory: %s", cfg.LogDirectory)

	metrics := telemetry.NewMetrics()
	logger := telemetry.WrapLogger(log.Default())

	in := intern.New()
	cache := session.NewCache(cfg.Session)
	bus := signalbus.New()

	raidRegistry := raid.New(cfg.Raid.MaxSlots)
	overlayRouter := overlay.New(cfg.Overlay, raidRegistry, metrics)

	var effectTracker *effects.Tracker
	defsPath := getEnvString("COMBATLOG_DEFINITIONS_PATH", "")
	if defsPath != "" {
		defs, err := effects.LoadDefinitions(defsPath, in)
		if err != nil {
			log.Printf("effect definitions disabled: %v", err)
			effectTracker = effects.New(effects.DefinitionSet{})
		} else {
			log.Printf("loaded %d effect definitions from %s", len(defs.Definitions), defsPath)
			effectTracker = effects.New(defs)
		}
	} else {
		effectTracker = effects.New(effects.DefinitionSet{})
	}
	audioPlayer := effects.NewAudioPlayer()
	bus.Register(effectTracker)
	bus.Register(signalbus.HandlerFunc(func(sig model.GameSignal) {
		handleRaidSignal(sig, raidRegistry)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go overlayRouter.Run(ctx)

	driver := dirindex.New(cfg.LogDirectory)
	pipeline := &runningPipeline{
		cfg:     cfg,
		in:      in,
		cache:   cache,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
		tracker: effectTracker,
		audio:   audioPlayer,
	}

	if action, err := driver.Bootstrap(); err != nil {
		log.Printf("directory bootstrap failed: %v", err)
	} else if action.StartPath != "" {
		pipeline.switchTo(ctx, action.StartPath, overlayRouter)
	}

	go watchDirectory(ctx, driver, pipeline, overlayRouter, cfg.LogDirectory)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down")
	cancel()
	pipeline.stop()
}

// runningPipeline owns the currently active tailer goroutine and the
// shared processing state it feeds.
type runningPipeline struct {
	cfg     config.Config
	in      *intern.Interner
	cache   *session.Cache
	bus     *signalbus.Bus
	metrics *telemetry.Metrics
	logger  telemetry.Logger
	tracker *effects.Tracker
	audio   *effects.AudioPlayer

	cancelActive context.CancelFunc
}

// switchTo stops any active tail and starts a new one on path from offset 0.
func (p *runningPipeline) switchTo(parent context.Context, path string, router *overlay.Router) {
	p.stop()

	router.ClearAllData()

	sessionDate, err := parser.ParseSessionDate(filepath.Base(path))
	if err != nil {
		p.logger.Printf("cannot derive session date for %s: %v", path, err)
		sessionDate = time.Now()
	}
	lineParser := parser.New(p.in, sessionDate)

	tailCtx, cancel := context.WithCancel(parent)
	p.cancelActive = cancel

	tailer := tail.New(path, p.cfg.Tail, p.logger, p.metrics)
	lines := make(chan tail.Line, 256)
	notices := make(chan tail.NoticeKind, 8)

	go func() {
		if err := tailer.Run(tailCtx, 0, lines, notices); err != nil {
			p.logger.Printf("tailer for %s stopped: %v", path, err)
		}
	}()

	go p.consume(tailCtx, lineParser, lines, notices)

	p.logger.Printf("tailing %s", path)
}

func (p *runningPipeline) stop() {
	if p.cancelActive != nil {
		p.cancelActive()
		p.cancelActive = nil
	}
}

// consume reads parsed lines and drives them through the session processor
// and signal bus until ctx is canceled.
func (p *runningPipeline) consume(ctx context.Context, lineParser *parser.Parser, lines <-chan tail.Line, notices <-chan tail.NoticeKind) {
	lineNumber := 0
	for {
		select {
		case <-ctx.Done():
			return

		case line := <-lines:
			lineNumber++
			event, err := lineParser.ParseLine(line.Text, lineNumber)
			if err != nil {
				p.metrics.ParseErrorsTotal.Inc()
				continue
			}
			p.metrics.EventsProcessedTotal.Inc()
			signals := session.Process(event, p.cache, p.cfg.Shield.GraceWindow)
			if len(signals) > 0 {
				p.bus.Dispatch(signals)
			}
			p.audio.PlayFired(p.tracker.TakeFiredAlerts())

		case <-notices:
			// The tailer already counts the reset in TailFileResetsTotal.
		}
	}
}

// watchDirectory polls for new/removed combat log files and drives the
// dirindex.Driver accordingly. A dedicated filesystem-event watcher is an
// embedding-application concern; this keeps the daemon dependency-free.
func watchDirectory(ctx context.Context, driver *dirindex.Driver, pipeline *runningPipeline, router *overlay.Router, dir string) {
	ticker := time.NewTicker(directoryScanInterval)
	defer ticker.Stop()

	known := map[string]bool{}
	if active := driver.Active(); active != "" {
		known[active] = true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := dirindex.List(dir)
			if err != nil {
				continue
			}
			seen := map[string]bool{}
			for _, e := range entries {
				seen[e.Path] = true
				if !known[e.Path] {
					known[e.Path] = true
					action, err := driver.Apply(dirindex.DirectoryEvent{Kind: dirindex.EventNewFile, Path: e.Path})
					if err == nil && action.StartPath != "" {
						pipeline.switchTo(ctx, action.StartPath, router)
					}
				}
			}
			for path := range known {
				if !seen[path] {
					delete(known, path)
					action, err := driver.Apply(dirindex.DirectoryEvent{Kind: dirindex.EventFileRemoved, Path: path})
					if err == nil {
						if action.StartPath != "" {
							pipeline.switchTo(ctx, action.StartPath, router)
						} else if action.StopActive {
							pipeline.stop()
						}
					}
				}
			}
		}
	}
}

// handleRaidSignal keeps the raid slot registry in sync with player
// discovery and death. §4.8 does not name who drives registration; the
// natural source is PlayerInitialized (a player is first fully observed)
// and EntityDeath (a player leaving the fight still holds its slot, so
// only explicit removal elsewhere would clear it — this daemon does not
// clear slots on death, only on registry-action requests from an overlay).
func handleRaidSignal(sig model.GameSignal, registry *raid.Registry) {
	if sig.Kind == model.SignalPlayerInitialized {
		registry.TryRegister(sig.EntityID, sig.PlayerName)
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
