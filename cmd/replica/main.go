package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alitto/pond"
	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gxo-labs/replica"
	"github.com/gxo-labs/replica/internal/events"
	"github.com/gxo-labs/replica/internal/logger"
	"github.com/gxo-labs/replica/internal/metrics"
	"github.com/gxo-labs/replica/internal/profile"
	"github.com/gxo-labs/replica/internal/state"
	"github.com/gxo-labs/replica/internal/tracing"
	v1 "github.com/gxo-labs/replica/pkg/replica/v1"
	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	replicalog "github.com/gxo-labs/replica/pkg/replica/v1/log"
	replicastate "github.com/gxo-labs/replica/pkg/replica/v1/state"
)

const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitUsageError       = 2
	ExitInterrupted      = 130
	DefaultLogLevel      = "info"
	DefaultLogFmt        = "text"
	DefaultEventBusSize  = 1024
	DefaultIterations    = 1000
	DefaultDepth         = 3
	DefaultWidth         = 8
	DefaultShutdownGrace = 5 * time.Second
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(ExitUsageError)
	}
	switch os.Args[1] {
	case "validate":
		os.Exit(runValidateCommand(os.Args[2:]))
	case "bench":
		os.Exit(runBenchCommand(os.Args[2:]))
	case "--version", "-version", "version":
		printVersion()
		os.Exit(ExitSuccess)
	default:
		usage()
		os.Exit(ExitUsageError)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags...]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  validate   check an exclusion profiles file")
	fmt.Fprintln(os.Stderr, "  bench      clone a sample object graph concurrently and report throughput")
	fmt.Fprintln(os.Stderr, "  version    print version information")
}

func printVersion() {
	fmt.Printf("replica version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", buildDate)
	fmt.Printf("go version: %s\n", runtime.Version())
	fmt.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runValidateCommand(args []string) int {
	validateFlags := flag.NewFlagSet("validate", flag.ContinueOnError)
	profilesPath := validateFlags.String("profiles", "", "Path to the profiles YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")

	validateFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s validate -profiles <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Validates the structure and schema version of an exclusion profiles file.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}
	if err := validateFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *profilesPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -profiles flag is required for validation")
		validateFlags.Usage()
		return ExitUsageError
	}

	log := logger.NewLogger(*logLevel, "text", os.Stderr)
	log.Infof("Validating profiles: %s", *profilesPath)

	set, err := profile.LoadProfilesFromFile(*profilesPath)
	if err != nil {
		var validationErr *replicaerrors.ValidationError
		var configErr *replicaerrors.ConfigError
		if errors.As(err, &validationErr) {
			log.Errorf("Profiles validation failed:\n%s", validationErr.Error())
		} else if errors.As(err, &configErr) {
			log.Errorf("Profiles configuration error:\n%s", configErr.Error())
		} else {
			log.Errorf("Failed to load or validate profiles: %v", err)
		}
		return ExitFailure
	}

	for _, name := range set.Names() {
		fields, _ := set.Fields(name)
		log.Infof("Profile '%s' excludes %v", name, fields)
	}
	log.Infof("Profiles validation successful: %s", *profilesPath)
	return ExitSuccess
}

func runBenchCommand(args []string) int {
	benchFlags := flag.NewFlagSet("bench", flag.ContinueOnError)
	iterations := benchFlags.Int("iterations", DefaultIterations, "Number of clones to run")
	workers := benchFlags.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
	depth := benchFlags.Int("depth", DefaultDepth, "Nesting depth of the sample map tree")
	width := benchFlags.Int("width", DefaultWidth, "Fan-out of the sample map tree and size of the node ring")
	profilesPath := benchFlags.String("profiles", "", "Profiles YAML file (optional)")
	profileName := benchFlags.String("profile", "", "Profile to apply from -profiles")
	metricsAddr := benchFlags.String("metrics-addr", "", "Serve Prometheus metrics on this address and wait for a signal after the run")
	mode := benchFlags.String("mode", "clone", "What to measure: 'clone' clones the sample graph, 'state' reads snapshots from a clone-on-read state store")
	dump := benchFlags.Bool("dump", false, "Print one cloned sample")
	logLevel := benchFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := benchFlags.String("log-format", DefaultLogFmt, "Log format (text, json)")

	benchFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s bench [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Clones a sample object graph concurrently and reports throughput.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		benchFlags.PrintDefaults()
	}
	if err := benchFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *logFormat != "text" && *logFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}
	if *iterations <= 0 || *depth < 0 || *width <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -iterations and -width must be positive and -depth cannot be negative")
		return ExitUsageError
	}
	if *workers <= 0 {
		*workers = runtime.NumCPU()
		fmt.Fprintf(os.Stderr, "Warning: -workers must be positive, defaulting to %d\n", *workers)
	}
	if *mode != "clone" && *mode != "state" {
		fmt.Fprintln(os.Stderr, "Error: -mode must be 'clone' or 'state'")
		return ExitUsageError
	}
	if (*profilesPath == "") != (*profileName == "") {
		fmt.Fprintln(os.Stderr, "Error: -profiles and -profile must be given together")
		return ExitUsageError
	}

	log := logger.NewLogger(*logLevel, *logFormat, os.Stderr).With("replica_version", version)

	cfg := config.Empty()
	if *profilesPath != "" {
		set, err := profile.LoadProfilesFromFile(*profilesPath)
		if err != nil {
			log.Errorf("Failed to load profiles: %v", err)
			return ExitFailure
		}
		if cfg, err = set.Config(*profileName); err != nil {
			log.Errorf("Failed to resolve profile '%s': %v", *profileName, err)
			return ExitFailure
		}
		log.Infof("Using profile '%s' excluding %v", *profileName, cfg.ExcludedFields())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eventBus := events.NewChannelEventBus(DefaultEventBusSize, log)
	defer eventBus.Close()
	metricsProvider := metrics.NewPrometheusRegistryProvider()
	tracerProvider, err := tracing.NewProviderFromEnv(ctx, log)
	if err != nil {
		log.Warnf("Failed to initialize tracing from environment: %v. Using NoOp tracer.", err)
		tracerProvider, _ = tracing.NewNoOpProvider()
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), DefaultShutdownGrace)
		defer cancelShutdown()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Error shutting down tracer provider: %v", err)
		}
	}()

	cloner, err := replica.NewCloner(
		v1.WithLogger(log),
		v1.WithEventBus(eventBus),
		v1.WithMetricsRegistryProvider(metricsProvider),
		v1.WithTracerProvider(tracerProvider),
		v1.WithDefaultConfig(cfg),
	)
	if err != nil {
		log.Errorf("Failed to create cloner: %v", err)
		return ExitFailure
	}

	counters, err := metrics.NewEventCounters(metricsProvider.Registry())
	if err != nil {
		log.Errorf("Failed to register event counters: %v", err)
		return ExitFailure
	}
	go events.NewMetricsEventListener(eventBus, counters, log).Start(ctx)

	var server *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metricsProvider.Registry(), promhttp.HandlerOpts{}))
		server = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server failed: %v", err)
			}
		}()
		log.Infof("Serving metrics on http://%s/metrics", *metricsAddr)
	}

	s := buildSample(*depth, *width)
	if *dump {
		dumpClone(ctx, cloner, s, cfg)
	}

	var exitCode int
	if *mode == "state" {
		store, err := state.NewMemoryStateStore(cloner)
		if err != nil {
			log.Errorf("Failed to create state store: %v", err)
			return ExitFailure
		}
		defer func() { _ = store.Close() }()
		exitCode = runStateBench(ctx, log, store, s, *iterations, *workers)
	} else {
		exitCode = runBench(ctx, log, cloner, s, cfg, *iterations, *workers)
	}

	if server != nil {
		log.Infof("Benchmark finished; waiting for SIGINT or SIGTERM to stop the metrics server.")
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), DefaultShutdownGrace)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Error shutting down metrics server: %v", err)
		}
	}
	return exitCode
}

func runBench(ctx context.Context, log replicalog.Logger, cloner v1.ClonerV1, s *sample, cfg *config.Config, iterations, workers int) int {
	pool := pond.New(workers, iterations)
	var failures atomic.Int64
	var errOnce sync.Once
	var firstErr error

	start := time.Now()
	done := submitUntilCancelled(ctx, pool, iterations, func() {
		if _, err := replica.DeepCloneContext(ctx, cloner, s, cfg); err != nil {
			failures.Add(1)
			errOnce.Do(func() { firstErr = err })
		}
	})
	elapsed := time.Since(start)

	rate := float64(done) / elapsed.Seconds()
	log.Infof("Cloned sample %d times with %d workers in %v (%.0f clones/s, %d failed)",
		done, workers, elapsed.Truncate(time.Microsecond), rate, failures.Load())
	if ctx.Err() != nil {
		log.Warnf("Benchmark interrupted after %d of %d clones", done, iterations)
		return ExitInterrupted
	}
	if n := failures.Load(); n > 0 {
		log.Errorf("%d clones failed, first error: %v", n, firstErr)
		return ExitFailure
	}
	return ExitSuccess
}

// runStateBench loads the sample's config tree into store under dotted keys
// and reads full snapshots back concurrently.
func runStateBench(ctx context.Context, log replicalog.Logger, store replicastate.Store, s *sample, iterations, workers int) int {
	flat := make(map[string]interface{}, len(s.Config)+1)
	for k, v := range s.Config {
		flat["config."+k] = v
	}
	flat["ring"] = s.Ring
	if err := store.Load(flat); err != nil {
		log.Errorf("Failed to load state store: %v", err)
		return ExitFailure
	}

	pool := pond.New(workers, iterations)
	var failures atomic.Int64
	start := time.Now()
	done := submitUntilCancelled(ctx, pool, iterations, func() {
		if _, err := store.GetAll(); err != nil {
			failures.Add(1)
		}
	})
	elapsed := time.Since(start)

	log.Infof("Read %d state snapshots with %d workers in %v (%.0f snapshots/s, %d failed)",
		done, workers, elapsed.Truncate(time.Microsecond), float64(done)/elapsed.Seconds(), failures.Load())
	if ctx.Err() != nil {
		log.Warnf("Benchmark interrupted after %d of %d snapshots", done, iterations)
		return ExitInterrupted
	}
	if failures.Load() > 0 {
		return ExitFailure
	}
	return ExitSuccess
}

// submitUntilCancelled runs task up to n times on pool and waits for it to
// drain. Once ctx is cancelled nothing new is submitted and queued tasks
// return without running. It returns the number of tasks that ran.
func submitUntilCancelled(ctx context.Context, pool *pond.WorkerPool, n int, task func()) int64 {
	var ran atomic.Int64
	for i := 0; i < n && ctx.Err() == nil; i++ {
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			task()
			ran.Add(1)
		})
	}
	pool.StopAndWait()
	return ran.Load()
}

func dumpClone(ctx context.Context, cloner v1.ClonerV1, s *sample, cfg *config.Config) {
	cpy, err := replica.DeepCloneContext(ctx, cloner, s, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: dump clone failed: %v\n", err)
		return
	}
	dumper := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                4,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	dumper.Fdump(os.Stdout, cpy)
}
