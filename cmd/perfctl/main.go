package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siegewar/perfctl/internal/alert"
	"github.com/siegewar/perfctl/internal/config"
	"github.com/siegewar/perfctl/internal/host"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/mirror"
	"github.com/siegewar/perfctl/internal/optimizer"
	"github.com/siegewar/perfctl/internal/perf"
	"github.com/siegewar/perfctl/internal/pid"
	"github.com/siegewar/perfctl/internal/report"
	"github.com/siegewar/perfctl/internal/settings"
	"github.com/siegewar/perfctl/internal/siege"
	"github.com/siegewar/perfctl/internal/store"
)

const httpShutdownTimeout = 5 * time.Second

var (
	cfg       *config.Config
	strategy  optimizer.Strategy
	feed      *host.Feed
	collector *perf.Collector
	manager   *alert.Manager
	opt       *optimizer.Optimizer
	monitor   *siege.Monitor
	repo      store.Repository
	tracker   *report.Tracker
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	strategy, err = optimizer.ParseStrategy(cfg.Strategy)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse strategy")
	}

	repo, err = store.New(store.Config{
		DBPath:       cfg.Database,
		BatchSize:    32,
		BatchTimeout: 10,
		Enabled:      cfg.Database != "",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open durable store")
	}

	settingsStore := settings.NewStore()
	settingsStore.Seed(settings.Defaults())

	feed = host.NewFeed()
	collector = perf.NewCollector(feed, feed, cfg.HistorySize)
	manager = alert.NewManager(alert.DefaultThresholds())
	opt = optimizer.New(settingsStore, collector, cfg.Experimental)
	monitor = siege.NewMonitor(cfg.HistorySize, collector, repo)
	monitor.SetAlertSink(manager.Broadcast)
	collector.BindZoneSource(monitor)
	tracker = report.NewTracker()
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	hub := mirror.NewHub()
	monitor.SetMirror(hub)
	go hub.Run(ctx)

	var server *http.Server
	if cfg.MirrorListen != "" {
		server = newServer(hub)
		go func() {
			logger.Info().Str("listen", cfg.MirrorListen).Msg("Mirror endpoint listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("mirror endpoint failed")
			}
		}()
	}

	go monitor.Run(ctx, time.Duration(cfg.SiegeInterval)*time.Millisecond)

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to stop mirror endpoint")
		}
	}

	cleanup()
}

func loop(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if cfg.Monitor {
		logger.Info().Msg("Monitor mode activated. Sampling and alerting only...")
	}

	emergencyFired := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snapshot := collector.Sample()
			manager.Evaluate(snapshot)
			tracker.Observe(snapshot)

			if cfg.Telemetry {
				if err := repo.ArchiveSnapshot(snapshot); err != nil {
					logger.Error().Err(err).Msg("failed to archive snapshot")
				}
			}

			if !cfg.Monitor && cfg.AutoOptimize {
				active := manager.Active()
				if !emergencyFired && hasEmergency(active) {
					opt.EmergencyOptimization()
					emergencyFired = true
				}
				opt.MaybeOptimize(strategy, active)
			}

			logState(snapshot)
		}
	}
}

func hasEmergency(alerts []alert.Alert) bool {
	for _, a := range alerts {
		if a.Severity == alert.SeverityEmergency {
			return true
		}
	}

	return false
}

// newServer exposes the daemon's outward surface: the observer mirror,
// the game's stats ingest, the prometheus gauges and the siege session
// controls.
func newServer(hub *mirror.Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))
	mux.Handle("/ingest", feed)
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/siege/start", handleSiegeStart)
	mux.HandleFunc("/siege/stop", handleSiegeStop)
	mux.HandleFunc("/siege/event", handleSiegeEvent)
	mux.HandleFunc("/optimize", handleOptimize)
	mux.HandleFunc("/analyze", handleAnalyze)
	mux.HandleFunc("/status", handleStatus)

	return &http.Server{
		Addr:              cfg.MirrorListen,
		Handler:           mux,
		ReadHeaderTimeout: httpShutdownTimeout,
	}
}

func handleSiegeStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var body struct {
		SessionID string `json:"session_id"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)

			return
		}
	}

	monitor.StartMonitoring(body.SessionID)
	w.WriteHeader(http.StatusNoContent)
}

func handleSiegeStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var body struct {
		Victory bool `json:"victory"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)

			return
		}
	}

	monitor.StopMonitoring(body.Victory)
	w.WriteHeader(http.StatusNoContent)
}

func handleSiegeEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var body struct {
		Type           string  `json:"type"`
		From           string  `json:"from"`
		To             string  `json:"to"`
		DurationMs     float64 `json:"duration_ms"`
		MessagesPerSec float64 `json:"messages_per_sec"`
		BandwidthKBps  float64 `json:"bandwidth_kbps"`
		ActiveZones    int     `json:"active_zones"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)

		return
	}

	switch body.Type {
	case "phase_transition":
		monitor.RecordPhaseTransition(body.From, body.To, body.DurationMs)
	case "dominance_calculation":
		monitor.RecordDominanceCalculation(body.DurationMs)
	case "ticket_update":
		monitor.RecordTicketUpdate(body.DurationMs)
	case "network_activity":
		monitor.RecordNetworkActivity(body.MessagesPerSec, body.BandwidthKBps)
	case "active_zones":
		monitor.SetActiveZones(body.ActiveZones)
	default:
		http.Error(w, "unknown event type", http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleOptimize runs one of the on-demand optimization entry points.
// The goal selects how the gap is measured; targets default to the
// configured ones.
func handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	if cfg.Monitor {
		http.Error(w, "monitor mode, optimizations disabled", http.StatusConflict)

		return
	}

	var body struct {
		Goal        string  `json:"goal"`
		TargetFPS   float64 `json:"target_fps"`
		MaxMemoryMB float64 `json:"max_memory_mb"`
		PlayerCount int     `json:"player_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)

		return
	}

	var applied []optimizer.Action
	switch body.Goal {
	case "fps":
		target := body.TargetFPS
		if target == 0 {
			target = cfg.TargetFPS
		}
		applied = opt.OptimizeForTargetFPS(target)
	case "memory":
		budget := body.MaxMemoryMB
		if budget == 0 {
			budget = cfg.MemoryBudgetMB
		}
		applied = opt.OptimizeForMemoryTarget(budget)
	case "players":
		applied = opt.OptimizeForPlayerCount(body.PlayerCount)
	case "revert":
		opt.RevertOptimizations()
	default:
		http.Error(w, "unknown optimization goal", http.StatusBadRequest)

		return
	}

	writeJSON(w, map[string]any{
		"applied": applied,
		"level":   opt.Level().String(),
	})
}

func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	writeJSON(w, map[string]any{
		"recommendations": opt.AnalyzeBottlenecks(),
	})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	writeJSON(w, map[string]any{
		"snapshot":        collector.LatestSnapshot(),
		"alerts":          manager.Active(),
		"siege":           monitor.CurrentSnapshot(),
		"siege_alerts":    monitor.ActiveAlerts(),
		"applied_actions": opt.AppliedActions(),
		"level":           opt.Level().String(),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	if monitor.IsActive() {
		monitor.StopMonitoring(false)
	}

	if cfg.ReportPath != "" {
		if err := tracker.Export(cfg.ReportPath, collector.FrameTimeHistory(), collector.FPSHistory()); err != nil {
			logger.Error().Err(err).Msg("failed to export performance report")
		} else {
			logger.Info().Str("path", cfg.ReportPath).Msg("Performance report exported")
		}
	}

	if cfg.RevertOnExit && !cfg.Monitor {
		opt.RevertOptimizations()
	}

	collector.Close()

	if err := repo.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close durable store")
	}

	if err := pid.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}

	logger.Info().Msg("Exiting...")
}

func logState(s perf.Snapshot) {
	if cfg.Debug {
		logger.Debug().
			Float64("frame_time_ms", s.FrameTimeMs).
			Float64("fps", s.FPS).
			Float64("avg_fps", s.AverageFPS).
			Float64("min_fps", s.MinimumFPS).
			Float64("gpu_time_ms", s.GPUTimeMs).
			Float64("render_thread_ms", s.RenderThreadMs).
			Int("draw_calls", s.DrawCalls).
			Int("triangles", s.Triangles).
			Float64("physical_memory_mb", s.PhysicalMemoryMB).
			Float64("texture_memory_mb", s.TextureMemoryMB).
			Float64("latency_ms", s.NetworkLatencyMs).
			Float64("bandwidth_kbps", s.BandwidthKBps).
			Int("active_zones", s.ActiveZones).
			Float64("zone_query_ms", s.ZoneQueryMs).
			Int("active_alerts", len(manager.Active())).
			Int("applied_actions", len(opt.AppliedActions())).
			Str("level", opt.Level().String()).
			Bool("monitor", cfg.Monitor).
			Msg("")
	} else if cfg.Verbose || cfg.Monitor {
		logger.Info().
			Float64("fps", s.FPS).
			Float64("avg_fps", s.AverageFPS).
			Float64("frame_time_ms", s.FrameTimeMs).
			Float64("physical_memory_mb", s.PhysicalMemoryMB).
			Float64("latency_ms", s.NetworkLatencyMs).
			Int("active_alerts", len(manager.Active())).
			Msg("")
	}
}
