// Package cli provides the matcher daemon's command line interface
// (see DESIGN.md): a root command with a persistent --config flag, one
// subcommand per operational mode. This service is a single
// request-driven process, not a consensus cluster, so the subcommands
// are serve, match, and status rather than distributed run/enqueue
// modes with gRPC submission.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gridmatch/matcher/internal/auditlog"
	"github.com/gridmatch/matcher/internal/claim"
	"github.com/gridmatch/matcher/internal/config"
	"github.com/gridmatch/matcher/internal/housekeeping"
	"github.com/gridmatch/matcher/internal/httpapi"
	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/internal/jobstore/memory"
	"github.com/gridmatch/matcher/internal/jobstore/postgres"
	"github.com/gridmatch/matcher/internal/matcher"
	"github.com/gridmatch/matcher/internal/metrics"
	"github.com/gridmatch/matcher/internal/taskqueue"
	"github.com/gridmatch/matcher/internal/taskqueue/rediscache"
	"github.com/gridmatch/matcher/pkg/domain"
)

var (
	configFile string
	log        = slog.Default()
)

// BuildCLI assembles the root command and its subcommands.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "matcherd",
		Short: "matcherd: a job-to-resource matching service",
		Long: `matcherd matches waiting jobs to requesting resources:
- classified-attribute descriptor matching
- priority-ordered task queue traversal
- at-most-once claim coordination under concurrency`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildServeCommand())
	rootCmd.AddCommand(buildMatchCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

// runtime bundles the components wired up from configuration, shared
// by serve, match, and status.
type runtime struct {
	cfg         config.Config
	store       jobstore.Store
	logger      jobstore.Logger
	index       *taskqueue.Index
	coordinator *claim.Coordinator
	service     *matcher.Service
	auditLog    *auditlog.Log
	cache       *rediscache.Cache // nil unless JobStore.RedisAddr is set
}

func buildRuntime(cfg config.Config) (*runtime, error) {
	var store jobstore.Store
	var logger jobstore.Logger

	switch cfg.JobStore.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.JobStore.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting job store: %w", err)
		}
		pgStore := postgres.New(db)
		store, logger = pgStore, pgStore
	default:
		memStore := memory.New()
		store, logger = memStore, memStore
	}

	var auditLog *auditlog.Log
	if cfg.AuditLog.Path != "" {
		al, err := auditlog.Open(cfg.AuditLog.Path, cfg.AuditLog.BufferSize, cfg.AuditLog.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		auditLog = al
		logger = al
	}

	var cache *rediscache.Cache
	if cfg.JobStore.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.JobStore.RedisAddr})
		cache = rediscache.New(rdb, "")
	}

	index := taskqueue.NewIndex()
	if cache == nil || !warmStartIndex(store, index, cache) {
		if err := rebuildIndex(store, index); err != nil {
			return nil, fmt.Errorf("building task queue index: %w", err)
		}
	}

	coordinator := claim.New(store, logger, index)
	collector := metrics.NewCollector()
	svc := matcher.New(store, index, coordinator, collector)

	return &runtime{cfg: cfg, store: store, logger: logger, index: index, coordinator: coordinator, service: svc, auditLog: auditLog, cache: cache}, nil
}

// warmStartIndex primes index from the Redis snapshot cache instead of a
// full job-store scan, re-verifying every cached job's status against
// the store before trusting it (the cache is never authoritative —
// spec.md §4.3). Returns false if no usable snapshot was found, so the
// caller falls back to rebuildIndex.
func warmStartIndex(store jobstore.Store, index *taskqueue.Index, cache *rediscache.Cache) bool {
	ctx := context.Background()
	snap, err := cache.Load(ctx)
	if err != nil {
		if err != rediscache.ErrNotFound {
			log.Warn("cli: warm-start cache load failed, falling back to full rebuild", "error", err)
		}
		return false
	}

	jobsByQueue := make(map[domain.QueueID][]domain.JobID, len(snap.JobsByQueue))
	for qid, jobIDs := range snap.JobsByQueue {
		waiting := make([]domain.JobID, 0, len(jobIDs))
		for _, jobID := range jobIDs {
			attrs, err := store.GetJobAttributes(ctx, jobID)
			if err != nil || attrs.Status != domain.StatusWaiting {
				continue
			}
			waiting = append(waiting, jobID)
		}
		jobsByQueue[qid] = waiting
	}
	index.Rebuild(snap.Queues, jobsByQueue)
	log.Info("cli: primed task queue index from warm-start cache", "queues", len(snap.Queues))
	return true
}

func rebuildIndex(store jobstore.Store, index *taskqueue.Index) error {
	ctx := context.Background()
	queues, err := store.GetTaskQueues(ctx)
	if err != nil {
		return err
	}
	jobsByQueue := make(map[domain.QueueID][]domain.JobID, len(queues))
	for _, q := range queues {
		jobIDs, err := store.GetJobsInQueue(ctx, q.QueueID)
		if err != nil {
			return err
		}
		jobsByQueue[q.QueueID] = jobIDs
	}
	index.Rebuild(queues, jobsByQueue)
	return nil
}

func (rt *runtime) Close() {
	if rt.auditLog != nil {
		if err := rt.auditLog.Close(); err != nil {
			log.Error("closing audit log", "error", err)
		}
	}
}

func buildServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the matcher HTTP service",
		Long:  "Start requestJob/checkForJobs over HTTP, metrics, and the reconciliation sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configFile)
		},
	}
	return cmd
}

func serve(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}
	defer rt.Close()

	if cfg.Housekeeping.Enabled {
		// rt.cache is a typed *rediscache.Cache; only box it into the
		// Snapshotter interface when non-nil, or a nil *Cache wrapped in
		// a non-nil interface would slip past the reconciler's nil check.
		var snapshotter housekeeping.Snapshotter
		if rt.cache != nil {
			snapshotter = rt.cache
		}
		reconciler, err := housekeeping.New(rt.store, rt.index, snapshotter)
		if err != nil {
			return fmt.Errorf("failed to build reconciler: %w", err)
		}
		if err := reconciler.Start(cfg.Housekeeping.Interval); err != nil {
			return fmt.Errorf("failed to start reconciler: %w", err)
		}
		defer reconciler.Stop()
	}

	go func() {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metrics.StartServer(cfg.MetricsAddr); err != nil {
			log.Error("metrics server error", "error", err)
		}
	}()

	r := chi.NewRouter()
	r.Route("/", httpapi.New(rt.service, cfg.RequestsPerSecond).Routes())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Info("starting matcher service", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("received shutdown signal, stopping gracefully")
	return srv.Shutdown(context.Background())
}

func buildMatchCommand() *cobra.Command {
	var resourceJDL string
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run a single requestJob or checkForJobs call against the configured job store",
		Long:  "Debug helper: parses --resource and issues one matcher call, printing the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resourceJDL == "" {
				return fmt.Errorf("resource descriptor is required (use --resource)")
			}
			return runMatch(configFile, resourceJDL, checkOnly)
		},
	}

	cmd.Flags().StringVarP(&resourceJDL, "resource", "r", "", "resource descriptor text, e.g. [ Site=\"S1\"; CPU=4; ]")
	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "call checkForJobs instead of requestJob (read-only)")
	cmd.MarkFlagRequired("resource")

	return cmd
}

func runMatch(path, resourceJDL string, checkOnly bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}
	defer rt.Close()

	ctx := context.Background()
	if checkOnly {
		res := rt.service.CheckForJobs(ctx, resourceJDL)
		fmt.Printf("outcome=%v report=%+v message=%q\n", res.Outcome, res.Report, res.Message)
		return nil
	}

	res := rt.service.RequestJob(ctx, resourceJDL)
	fmt.Printf("outcome=%v payload=%+v message=%q\n", res.Outcome, res.Payload, res.Message)
	return nil
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show matcher configuration and task queue status",
		Long:  "Display the configured job store driver and current task queue index size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(configFile)
		},
	}
	return cmd
}

func showStatus(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("===============================================================")
	fmt.Println(" matcherd status")
	fmt.Println("===============================================================")
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  config file:        %s\n", path)
	fmt.Printf("  http addr:          %s\n", cfg.HTTPAddr)
	fmt.Printf("  metrics addr:       %s\n", cfg.MetricsAddr)
	fmt.Printf("  job store driver:   %s\n", cfg.JobStore.Driver)
	fmt.Printf("  housekeeping:       enabled=%t interval=%s\n", cfg.Housekeeping.Enabled, cfg.Housekeeping.Interval)
	fmt.Printf("  audit log path:     %s\n", cfg.AuditLog.Path)
	fmt.Println()

	rt, err := buildRuntime(cfg)
	if err != nil {
		fmt.Printf("Task queue index: unavailable (%v)\n", err)
		return nil
	}
	defer rt.Close()

	fmt.Println("Task queue index:")
	fmt.Printf("  queues loaded:      %d\n", rt.index.Len())
	fmt.Println()
	fmt.Println("===============================================================")
	return nil
}
