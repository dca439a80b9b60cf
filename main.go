// Command chattail tails a YouTube live chat over the public web
// endpoints. It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres and runs idempotent migrations.
//   - Bootstraps the live chat session and polls continuations, fanning
//     normalized items out to the archive and SSE subscribers.
//   - Exposes a minimal HTTP server with /healthz, /status, /metrics,
//     /chat/recent, and /chat/live.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/chattail/chat"
	"github.com/onnwee/chattail/config"
	"github.com/onnwee/chattail/db"
	"github.com/onnwee/chattail/innertube"
	"github.com/onnwee/chattail/server"
	"github.com/onnwee/chattail/session"
	"github.com/onnwee/chattail/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateTargetReady(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("chattail", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB (optional; no DB_DSN means no archive)
	var archive *db.Recorder
	sqldb := openArchive(cfg)
	if sqldb != nil {
		defer func() {
			if err := sqldb.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		archive = db.NewRecorder(sqldb)
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session wiring
	client := &innertube.Client{}
	opts := session.Options{
		Target: innertube.Target{
			Handle:    cfg.Handle,
			ChannelID: cfg.ChannelID,
			LiveID:    cfg.LiveID,
		},
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.MaxAttempts,
		BackoffBase:  cfg.BackoffBase,
		BackoffCap:   cfg.BackoffCap,
	}
	if cfg.TracePayloads {
		trace := session.NewTraceSink(cfg.TraceFile)
		defer trace.Close()
		opts.Trace = trace
		slog.Info("payload trace enabled", slog.String("path", cfg.TraceFile))
	}

	sess := session.New(client, opts)
	hub := server.NewHub()
	sess.OnItem(hub.Publish)
	sess.OnItem(func(item chat.ChatItem) {
		slog.Debug("chat item",
			slog.String("kind", item.Kind()),
			slog.String("author", item.Author.Name),
			slog.String("component", "main"))
	})
	if archive != nil {
		sess.OnBootstrap(archive.SetLiveID)
		sess.OnItem(archive.HandleItem)
	}
	sess.OnStop(func(reason string) {
		slog.Info("session stopped", slog.String("reason", reason), slog.String("component", "main"))
	})
	sess.OnError(func(err error) {
		slog.Error("session error", slog.Any("err", err), slog.String("component", "main"))
	})

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	sess.Start(gctx, false)
	g.Go(func() error {
		sess.Wait()
		return nil
	})

	handlers := server.NewHandlers(sqldb, sess, hub)
	g.Go(func() error {
		return server.Start(gctx, handlers, cfg.HTTPAddr)
	})

	// Block until shutdown signal or server failure
	<-gctx.Done()
	slog.Info("shutting down")
	sess.Stop()
	if err := g.Wait(); err != nil {
		slog.Error("shutdown error", slog.Any("err", err))
	}
}

// openArchive connects to Postgres and migrates the schema when DB_DSN
// is configured. A migration failure falls back to the embedded SQL; a
// connection failure disables the archive rather than aborting startup.
func openArchive(cfg *config.Config) *sql.DB {
	if cfg.DBDsn == "" {
		slog.Info("archive disabled (DB_DSN not set)")
		return nil
	}
	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db; archive disabled", slog.Any("err", err))
		return nil
	}

	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
			slog.Any("err", err),
			slog.String("component", "db_migrate"))
		if err := db.Migrate(context.Background(), database); err != nil {
			slog.Error("failed to migrate db; archive disabled", slog.Any("err", err))
			if cerr := database.Close(); cerr != nil {
				slog.Error("failed to close database", slog.Any("err", cerr))
			}
			return nil
		}
	}
	return database
}
