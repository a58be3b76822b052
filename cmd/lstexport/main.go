// lstexport runs the Landsat LST export job and extracts spatial maps from
// its output.
//
// Usage:
//
//	lstexport export [-job jobs/bb2.yaml]
//	lstexport spatial -in exports/Micromet_GEE/bb2_spatial_indices_2021.csv -index CELSIUS -date 2020-03-08
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/datacube"
	"github.com/robert-malhotra/landsat-lst/internal/export"
	"github.com/robert-malhotra/landsat-lst/internal/metrics"
	"github.com/robert-malhotra/landsat-lst/internal/pipeline"
	"github.com/robert-malhotra/landsat-lst/internal/stacclient"
)

const usage = `usage: lstexport <command> [flags]

commands:
  export   run the export job
  spatial  extract one index map from an exported table
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "spatial":
		err = runSpatial(os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	jobFile := fs.String("job", "", "job definition YAML (default $PIPELINE_JOB_FILE)")
	envFile := fs.String("env", ".env", "optional .env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotenv(*envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := setupLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	if *jobFile == "" {
		*jobFile = cfg.Pipeline.JobFile
	}
	job, err := config.LoadJob(*jobFile)
	if err != nil {
		return err
	}

	collections, err := config.LoadCollections(cfg.Datacube.CatalogsDir)
	if err != nil {
		return fmt.Errorf("failed to load catalogs: %w", err)
	}
	logger.Info("loaded catalogs", "count", collections.Count())

	params, err := paramsFromJob(job, collections)
	if err != nil {
		return err
	}

	source, err := newSource(cfg, collections, logger)
	if err != nil {
		return err
	}
	sink, err := newSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace))
	p := pipeline.New(source, sink).
		WithMetrics(m).
		WithConcurrency(cfg.Pipeline.Concurrency).
		WithLogger(logger)

	sum, runErr := p.Run(ctx, params)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("cloud-free dates", "job", job.Name, "dates", strings.Join(sum.Dates, ","))
	logger.Info("exported table", "header", strings.Join(sum.Header, ","), "rows", sum.Rows)
	for name, n := range sum.Series {
		logger.Info("exported point series", "point", name, "observations", n)
	}
	return nil
}

func newSource(cfg *config.Config, collections *config.CollectionRegistry, logger *slog.Logger) (catalog.Source, error) {
	switch cfg.Source.Type {
	case config.SourceSTAC:
		client, err := stacclient.NewClient(cfg.Source.STACURL, cfg.Source.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("using STAC source", "url", cfg.Source.STACURL)
		return client.WithLogger(logger).WithPageLimit(cfg.Source.PageLimit), nil
	default:
		logger.Info("using datacube source", "dir", cfg.Datacube.Dir)
		cats := datacube.CatalogsFromCollections(collections.All())
		return datacube.NewSource(cfg.Datacube.Dir, cats).WithLogger(logger), nil
	}
}

func newSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (export.Sink, error) {
	switch cfg.Export.Sink {
	case config.SinkS3:
		sink, err := export.NewS3Sink(ctx, cfg.Export.S3Bucket, cfg.Export.S3Prefix, cfg.Export.S3Region)
		if err != nil {
			return nil, err
		}
		logger.Info("exporting to S3", "bucket", cfg.Export.S3Bucket, "prefix", cfg.Export.S3Prefix)
		return sink.WithLogger(logger), nil
	default:
		logger.Info("exporting to files", "dir", cfg.Export.Dir)
		return export.NewFileSink(cfg.Export.Dir), nil
	}
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
