// Command variantgen generates parameter variants of a building model record
// graph, stores each variant and the audit log, and prints the modification
// report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"variantcore/internal/blob"
	"variantcore/internal/config"
	"variantcore/internal/core"
	"variantcore/internal/observability"
	"variantcore/internal/persistence"
	"variantcore/internal/tracker"
	"variantcore/pkg/domain"
	"variantcore/plugins/retrofit"
)

const exportPrefix = "exports"

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

type options struct {
	model      string
	configPath string
	count      int
	categories string
	strategy   string
	seed       int64
	workers    int
	session    string
	building   string
	metricsOut string
	backend    string
	trace      bool
}

// recorder is what both the service and the tracker report to.
type recorder interface {
	core.MetricsRecorder
	tracker.Metrics
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "variantgen: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("variantgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.model, "model", "", "path to the base record graph (JSON)")
	fs.StringVar(&opts.configPath, "config", "", "path to the modification configuration (YAML)")
	fs.IntVar(&opts.count, "variants", 10, "number of variants to generate")
	fs.StringVar(&opts.categories, "categories", "", "comma separated categories to apply (default all)")
	fs.StringVar(&opts.strategy, "strategy", "", "strategy preset applied to every category")
	fs.Int64Var(&opts.seed, "seed", cfg.Seed, "base random seed")
	fs.IntVar(&opts.workers, "workers", cfg.Workers, "parallel variant workers (0 = GOMAXPROCS)")
	fs.StringVar(&opts.session, "session", "", "session id (generated when empty)")
	fs.StringVar(&opts.building, "building", "", "building identifier recorded on the session")
	fs.StringVar(&opts.metricsOut, "metrics-out", "", "write collected metrics to this file")
	fs.StringVar(&opts.backend, "metrics", cfg.MetricsBackend, "metrics backend: prometheus or expvar")
	fs.BoolVar(&opts.trace, "trace", false, "write JSON trace spans to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.model == "" {
		fmt.Fprintln(stderr, "variantgen: -model is required")
		fs.Usage()
		return 2
	}

	logger, err := config.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "variantgen: %v\n", err)
		return 1
	}
	if err := run(ctx, cfg, opts, stdout, stderr, logger); err != nil {
		logger.Error("variant generation failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, opts options, stdout, stderr io.Writer, logger core.Logger) (retErr error) {
	data, err := os.ReadFile(opts.model)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	base, err := domain.DecodeRecordGraph(data)
	if err != nil {
		return fmt.Errorf("decode model %s: %w", opts.model, err)
	}
	var modCfg domain.ModificationConfig
	if opts.configPath != "" {
		if modCfg, err = config.LoadModificationConfig(opts.configPath); err != nil {
			return err
		}
	}

	store, err := blob.Open(ctx, cfg.BlobOptions())
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	audit, err := persistence.Open(ctx, cfg.PersistenceOptions())
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer func() {
		if cerr := audit.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close audit store: %w", cerr)
		}
	}()

	metrics, flush, err := newRecorder(opts.backend, cfg.MetricsNamespace)
	if err != nil {
		return err
	}
	svcOpts := []core.ServiceOption{
		core.WithPlugins(retrofit.New()),
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
	}
	if opts.trace {
		svcOpts = append(svcOpts, core.WithTracer(observability.NewJSONTracer(stderr)))
	}
	svc, err := core.NewService(svcOpts...)
	if err != nil {
		return err
	}

	tr := tracker.New(tracker.WithLogger(logger), tracker.WithMetrics(metrics))
	plan := core.VariantPlan{
		Count:        opts.count,
		Categories:   parseCategories(opts.categories),
		Strategy:     opts.strategy,
		Config:       modCfg,
		Seed:         uint64(opts.seed),
		Workers:      opts.workers,
		SessionID:    opts.session,
		BuildingID:   opts.building,
		BaseModelRef: opts.model,
		Sink:         blob.NewVariantSink(store, blob.VariantPrefix),
	}
	outputs, err := svc.GenerateVariants(ctx, base, plan, tr)
	if err != nil && len(outputs) == 0 {
		return err
	}
	failed := 0
	for _, out := range outputs {
		if out.Err != nil {
			failed++
		}
	}

	keys, exportErr := tr.Export(ctx, store, exportPrefix)
	if exportErr != nil {
		return exportErr
	}
	if perr := tr.Persist(ctx, audit); perr != nil {
		return perr
	}

	fmt.Fprint(stdout, tr.RenderReport())
	fmt.Fprintln(stdout)
	for _, key := range keys {
		fmt.Fprintf(stdout, "exported %s\n", key)
	}
	if failed > 0 {
		fmt.Fprintf(stdout, "%d of %d variants failed\n", failed, len(outputs))
	}

	if opts.metricsOut != "" {
		if werr := flush(opts.metricsOut); werr != nil {
			return fmt.Errorf("write metrics: %w", werr)
		}
	}
	return err
}

// newRecorder builds the metrics backend and a function dumping its state to
// a file: Prometheus text format or the expvar snapshot as JSON.
func newRecorder(backend, namespace string) (recorder, func(path string) error, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "prometheus":
		reg := prometheus.NewRegistry()
		rec, err := observability.NewPrometheusRecorder(reg, namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("register metrics: %w", err)
		}
		return rec, func(path string) error { return prometheus.WriteToTextfile(path, reg) }, nil
	case "expvar":
		rec := observability.NewExpvarRecorder("")
		return rec, func(path string) error {
			b, err := json.MarshalIndent(rec.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(path, b, 0o644)
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown metrics backend %q", backend)
	}
}

func parseCategories(list string) []domain.Category {
	var out []domain.Category
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, domain.Category(strings.ToLower(part)))
		}
	}
	return out
}
