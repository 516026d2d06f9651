package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stagehand/theater/internal/theaterapi"
	"github.com/stagehand/theater/internal/theaterconfig"
	"github.com/stagehand/theater/internal/theaterlog"
	"github.com/stagehand/theater/internal/theatermetrics"
	"github.com/stagehand/theater/internal/theatertrace"
	"github.com/stagehand/theater/pkg/theater"
	"github.com/stagehand/theater/pkg/version"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	apiPort  = flag.Int("port", 0, "Override API server port")
	logLevel = flag.String("log-level", "", "Override log level")
	debugMode = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	overrides := buildOverrides()
	cfg, err := theaterconfig.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Log.LoggerConfig()
	if *debugMode {
		logCfg.Level = theaterlog.DebugLevel
	}
	log := theaterlog.New(logCfg)

	log.Info("starting theater",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	metricsManager := theatermetrics.NewManager(theatermetrics.Config{
		Enabled:          cfg.Metrics.Enabled,
		GigDurationSecs:  theatermetrics.DefaultConfig().GigDurationSecs,
		InterruptBuckets: theatermetrics.DefaultConfig().InterruptBuckets,
	})

	shutdownTracing, err := theatertrace.Init(ctx, cfg.Tracing.TraceConfig(), "theater", version.Version)
	if err != nil {
		log.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("error shutting down tracing", "error", err)
		}
	}()

	t := theater.New(
		theater.WithBudget(cfg.Scheduler.Budget()),
		theater.WithLogger(log),
		theater.WithMetrics(metricsManager),
	)

	handlers := &theaterapi.Handlers{
		Theater: theaterapi.NewTheaterHandler(t, builtinRoles, nil),
		Events:  theaterapi.NewEventsHandler(log, t.Events, []string{"*"}, 0),
		Metrics: metricsManager,
	}

	apiCfg := cfg.API
	if *apiPort != 0 {
		apiCfg.Port = *apiPort
	}
	server := theaterapi.NewServer(apiCfg, log, handlers)

	serverErrChan := make(chan error, 1)
	if apiCfg.Enabled {
		go func() {
			if err := server.Start(); err != nil {
				serverErrChan <- err
			}
		}()
		log.Info("theater api listening", "host", apiCfg.Host, "port", apiCfg.Port)
	}

	log.Info("theater is running")

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("api server error", "error", err)
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if apiCfg.Enabled {
		log.Info("shutting down api server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("error shutting down api server", "error", err)
		}
	}

	log.Info("theater stopped gracefully")
}

func buildOverrides() map[string]any {
	overrides := make(map[string]any)
	if *apiPort != 0 {
		overrides["api.port"] = *apiPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["log.level"] = "debug"
	}
	return overrides
}

func printVersion() {
	fmt.Printf("Theater - Cooperative Actor Runtime\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Theater - a budget-scheduled cooperative actor runtime\n\n")
	fmt.Printf("Usage: theater [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  theater                             # Run with default config\n")
	fmt.Printf("  theater -config theater.yaml         # Use specific config file\n")
	fmt.Printf("  theater -port 9090 -log-level debug  # Override specific options\n")
	fmt.Printf("  theater -version                     # Print version info\n")
}
