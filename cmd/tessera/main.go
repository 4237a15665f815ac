package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/tessera/pkg/clock"
	"github.com/cuemby/tessera/pkg/config"
	"github.com/cuemby/tessera/pkg/log"
	"github.com/cuemby/tessera/pkg/metrics"
	"github.com/cuemby/tessera/pkg/scheduler"
	"github.com/cuemby/tessera/pkg/state"
	"github.com/cuemby/tessera/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Tessera - Cassandra cluster scheduling framework",
	Long: `Tessera deploys and operates Apache Cassandra clusters on top of a
two-level resource-offer cluster manager. The scheduler reacts to
incoming resource offers, bringing database nodes up one at a time and
driving cluster-wide maintenance jobs such as repair and cleanup.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Tessera version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Tessera scheduler",
	Long: `Run the Tessera scheduler.

The scheduler opens its state database, seeds the persisted framework
configuration from the bootstrap file on first start, and serves
Prometheus metrics while the offer transport drives the decision core.`,
	RunE: runScheduler,
}

func init() {
	runCmd.Flags().String("config", "tessera.yaml", "Bootstrap configuration file")
	runCmd.Flags().String("data-dir", "/var/lib/tessera", "State database directory")
	runCmd.Flags().String("artifact-url", "http://localhost:18080", "Base URL executors fetch launch artifacts from")
	runCmd.Flags().String("metrics-addr", ":9105", "Prometheus metrics listen address")
	runCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Bool("log-json", false, "Log JSON instead of console output")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	artifactURL, _ := cmd.Flags().GetString("artifact-url")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")

	log.Init(log.Config{Level: logLevel, JSON: logJSON})
	logger := log.WithComponent("main")

	bootstrap, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	configuration := state.NewConfiguration(store, bootstrap)
	// Persist the bootstrap on first start so the framework id survives
	// restarts.
	persisted, err := configuration.Get()
	if err != nil {
		return err
	}
	if err := configuration.Set(persisted); err != nil {
		return err
	}

	cluster := scheduler.NewCluster(
		clock.System{},
		artifactURL,
		state.NewExecutorCounter(store),
		state.NewClusterState(store),
		state.NewHealthCheckHistory(store),
		state.NewJobs(store),
		configuration,
	)
	// The offer transport binds the decision core here; it ships separately
	// from this repository.
	_ = cluster

	logger.Info().
		Str("framework", persisted.FrameworkName).
		Str("framework_id", persisted.FrameworkID).
		Int("nodes", persisted.NumberOfNodes).
		Int("seeds", persisted.NumberOfSeeds).
		Msg("scheduler core ready")

	http.Handle("/metrics", metrics.Handler())
	errCh := make(chan error, 1)
	go func() {
		errCh <- http.ListenAndServe(metricsAddr, nil)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server error: %w", err)
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	return nil
}
