package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"devicescanner/internal/config"
	"devicescanner/internal/handler"
	"devicescanner/internal/hub"
	"devicescanner/internal/logging"
	"devicescanner/internal/service"
)

var longHelp = strings.TrimSpace(`
Track which known people are on the local network.

Every interval the host range is scanned for hardware addresses. Addresses are
mapped to identities from the config, and an identity stays present until it
has not been seen for last_seen seconds. The present set is written to Redis,
a flat file and an optional SQLite history.

The config file path is read from $DEVICE_SCANNER_CONFIG.
`)

var exampleUsage = strings.TrimSpace(`
  DEVICE_SCANNER_CONFIG=/etc/devicescanner.yaml devicescanner
  DEVICE_SCANNER_CONFIG=./scanner.toml devicescanner --once --log-level debug
  DEVICE_SCANNER_CONFIG=./scanner.yaml devicescanner check
`)

// flags holds command line overrides
type flags struct {
	once     bool
	dryRun   bool
	logLevel string
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	log, _ := logging.New("info")
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("devicescanner")
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Any error its commands return is a startup
// failure and makes the process exit 1.
func newRootCommand() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "devicescanner",
		Short:         "Track who is home by scanning the LAN for known devices",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := startup(f, cmd.Flags().Changed("log-level"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, f, logger)
		},
	}

	root.Flags().BoolVar(&f.once, "once", false, "run a single cycle and exit")
	root.Flags().BoolVar(&f.dryRun, "dry-run", false, "scan and track presence without writing to any sink")
	root.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log_level")

	root.AddCommand(checkCommand())
	return root
}

// startup loads the config named by $DEVICE_SCANNER_CONFIG and builds the
// process logger. The --log-level flag wins over log_level when set.
func startup(f flags, levelFlagSet bool) (*config.Config, zerolog.Logger, error) {
	cfg, path, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	level := cfg.LogLevel
	if levelFlagSet {
		level = f.logLevel
	}
	logger, err := logging.New(level)
	if err != nil {
		logger.Warn().Err(err).Msg("falling back to info level")
	}
	logger.Info().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}

// checkCommand validates the config and prints what would run
func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and print the resolved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", path)
			for _, problem := range cfg.DisableIncompleteSinks() {
				fmt.Fprintf(out, "Warning: %v\n", problem)
			}
			if cfg.AllowDuplicateAddresses {
				if m, err := cfg.Mapping(); err == nil {
					for _, conflict := range m.Conflicts() {
						fmt.Fprintf(out, "Warning: %v\n", conflict)
					}
				}
			}
			fmt.Fprintln(out, cfg.Summary())
			return nil
		},
	}
}

// run wires every component from cfg and blocks until ctx is done, or after
// one cycle when f.once is set
func run(ctx context.Context, cfg *config.Config, f flags, logger zerolog.Logger) error {
	for _, problem := range cfg.DisableIncompleteSinks() {
		logger.Error().Err(problem).Msg("sink disabled")
	}
	if f.dryRun {
		disableAllSinks(cfg)
		logger.Info().Msg("dry run: no sink will be written")
	}

	mapping, err := cfg.Mapping()
	if err != nil {
		return err
	}
	for _, conflict := range mapping.Conflicts() {
		logger.Warn().
			Str("address", string(conflict.Address)).
			Str("owner", string(conflict.Owner)).
			Msg("address listed under several identities")
	}

	scanner := buildScanner(ctx, cfg, logger)

	components := buildSinks(cfg, logger)
	defer func() {
		if err := components.fanout.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close sinks")
		}
	}()

	bus := service.NewEventBus()
	options := []service.SchedulerOption{service.WithEventBus(bus)}
	if components.audit != nil {
		options = append(options, service.WithAuditLog(components.audit))
	}

	scheduler := service.NewScheduler(service.Options{
		Hosts:       cfg.Hosts,
		Interval:    cfg.PollInterval(),
		Retention:   cfg.Retention(),
		ScanTimeout: cfg.ScanTimeoutDuration(),
	}, mapping, scanner, components.fanout, logger, options...)

	if f.once {
		report := scheduler.RunCycle(ctx)
		logger.Info().Int("present", report.Present).Dur("took", report.Duration).Msg("single cycle complete")
		return nil
	}

	if cfg.HTTPEnable {
		shutdown := startStatusServer(ctx, cfg, scheduler, bus, components, logger)
		defer shutdown()
	}

	return scheduler.Run(ctx)
}

// startStatusServer serves the status API in the background and returns a
// function that shuts it down
func startStatusServer(ctx context.Context, cfg *config.Config, scheduler *service.Scheduler, bus *service.EventBus, components *sinkSet, logger zerolog.Logger) func() {
	sseHub := hub.New(logger)
	hubCtx, stopHub := context.WithCancel(ctx)
	go sseHub.Run(hubCtx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	bus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case <-hubCtx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(event)
			}
		}
	}()

	api := handler.NewAPIHandler(scheduler, cfg.EnabledSinks(), logger)
	if components.history != nil {
		api.SetHistory(components.history)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(api, sseHub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("status API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("status API stopped")
		}
	}()

	return func() {
		stopHub()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("status API shutdown")
		}
	}
}
