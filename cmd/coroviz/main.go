package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"coroviz/internal/api"
	"coroviz/internal/attributes"
	"coroviz/internal/config"
	"coroviz/internal/eventprocessor"
	"coroviz/internal/eventstream"
	"coroviz/internal/export"
	"coroviz/internal/metrics"
	"coroviz/internal/otel"
	"coroviz/internal/output"
	"coroviz/internal/projection"
	"coroviz/internal/scenario"
	"coroviz/internal/session"
	"coroviz/internal/wire"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("coroviz failed")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "coroviz",
		Short:         "Reconstruct coroutine hierarchies from runtime lifecycle events",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			return nil
		},
	}

	root.AddCommand(newReplayCmd(), newServeCmd(), newDemoCmd())
	return root
}

// engine bundles everything a command needs to ingest and query events.
type engine struct {
	sessions  *session.Manager
	processor *eventprocessor.Processor
	collector *metrics.Collector
	provider  *sdktrace.TracerProvider
}

func (e *engine) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := otel.ShutdownProvider(ctx, e.provider); err != nil {
		log.Warn().Err(err).Msg("shutting down tracer provider")
	}
}

func buildEngine(cfg *config.Config) (*engine, error) {
	sessions := session.NewManager()
	collector := metrics.NewCollector()

	var snapshots eventprocessor.SnapshotHandler
	var provider *sdktrace.TracerProvider
	if cfg.ExportTraces {
		otelCfg, err := config.ParseOTELConfig()
		if err != nil {
			return nil, err
		}
		provider, err = otel.InitProvider(otelCfg)
		if err != nil {
			return nil, fmt.Errorf("initializing tracer provider: %w", err)
		}

		customAttrs, err := config.LoadAttributes(cfg.AttributesFile)
		if err != nil {
			return nil, err
		}
		evaluator, err := attributes.NewEvaluator(customAttrs)
		if err != nil {
			return nil, err
		}
		snapshots = export.NewSpanBridge(provider.Tracer("coroviz"), evaluator)
	}

	processor := eventprocessor.NewProcessor(sessions, snapshots, collector, log.Logger)
	return &engine{
		sessions:  sessions,
		processor: processor,
		collector: collector,
		provider:  provider,
	}, nil
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <events.ndjson>",
		Short: "Feed a recorded event stream through the engine and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.shutdown()

			in := os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			stream := eventstream.New(eventstream.NewNDJSONSource(in), eng.processor, log.Logger)
			if err := stream.Run(cmd.Context()); err != nil {
				return err
			}

			printSessions(eng.sessions)
			return nil
		},
	}
}

func newDemoCmd() *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a synthetic scenario through the engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.shutdown()

			gen := scenario.New("")
			var records []*wire.Record
			if legacy {
				records = gen.LegacyRecords()
			} else {
				records = gen.Records()
			}
			for _, rec := range records {
				wire.Normalize(rec)
				if err := eng.processor.HandleRecord(rec); err != nil {
					log.Warn().Err(err).Msg("handling record")
				}
			}

			printSessions(eng.sessions)
			return nil
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "emit legacy UpperCamel type names to exercise the normalizer")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API, ingesting from Redis when configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.shutdown()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if cfg.RedisURL != "" {
				source, err := eventstream.NewRedisSource(ctx, cfg.RedisURL, cfg.RedisStream)
				if err != nil {
					return err
				}
				defer source.Close()

				stream := eventstream.New(source, eng.processor, log.Logger)
				if err := stream.Start(ctx); err != nil {
					return err
				}
				defer stream.Stop()
				log.Info().Str("stream", cfg.RedisStream).Msg("tailing redis stream")
			}

			e := echo.New()
			e.HideBanner = true
			e.Use(middleware.Logger())
			e.Use(middleware.Recover())
			e.Use(middleware.CORS())

			api.NewHandler(eng.sessions, eng.processor).RegisterRoutes(e)
			e.GET("/metrics", echo.WrapHandler(eng.collector.Handler()))

			go func() {
				if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
					cancel()
				}
			}()
			log.Info().Str("addr", cfg.HTTPAddr).Msg("query API listening")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
				log.Info().Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func printSessions(sessions *session.Manager) {
	formatter := output.NewFormatter(os.Stdout)
	for _, id := range sessions.IDs() {
		sess := sessions.Get(id)
		if sess == nil {
			continue
		}
		snapshot := sess.Snapshot()
		fmt.Printf("session %s (%d events)\n", id, sess.EventCount())
		formatter.WriteTree(projection.ToTree(snapshot))
		formatter.WriteStats(projection.ComputeStats(snapshot))
	}
}
