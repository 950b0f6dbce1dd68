// Command purchases-export loads the purchases workbook, cleans it the same
// way the dashboard does and writes the result as JSON records. It can also
// store the table as a sqlite snapshot and announce the change over AMQP.
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
	"time"

	"github.com/dustin/go-humanize"

	"purchases/internal/amqp"
	"purchases/internal/backend"
	"purchases/internal/cli"
	"purchases/internal/config"
	"purchases/internal/core"
	"purchases/internal/export"
	applog "purchases/internal/log"
	"purchases/internal/sheets"
	"purchases/internal/sheets/xlsx"
	"purchases/internal/storage"
)

func main() {
	var (
		input    = flag.String("in", "", "workbook path or gs://bucket/object (default: the configured backend)")
		sheet    = flag.String("sheet", "", "worksheet name (default: first sheet)")
		output   = flag.String("o", "purchases.json", "output JSON path, - for stdout")
		dbPath   = flag.String("sqlite", "", "also store the table as a snapshot in this sqlite database")
		notify   = flag.Bool("notify", false, "publish a dataset-changed message using AMQP_URL")
		timeout  = flag.Duration("timeout", 2*time.Minute, "overall time limit")
		logLevel = flag.String("log-level", "", "log level, overrides LOG_LEVEL")
	)
	flag.Parse()

	cfg := cli.LoadConfig()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	// Logs go to stderr so stdout can carry the JSON.
	logger := cli.SetupLogger(cfg, applog.ComponentExport, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger, options{
		input:  *input,
		sheet:  *sheet,
		output: *output,
		dbPath: *dbPath,
		notify: *notify,
	}); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	input  string
	sheet  string
	output string
	dbPath string
	notify bool
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts options) error {
	src, cleanup, err := openSource(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Source cleanup failed", "error", err)
		}
	}()

	start := time.Now()
	table, err := src.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		applog.FieldSource, src.SourceID(),
		applog.FieldRows, table.Len(),
		applog.FieldDuration, time.Since(start).Milliseconds())

	summary, err := writeRecords(opts.output, table)
	if err != nil {
		return err
	}
	printSummary(os.Stderr, summary, opts.output)

	changedSource, snapshotID := src.SourceID(), ""
	if opts.dbPath != "" {
		repo, err := storage.NewSQLiteRepository(opts.dbPath)
		if err != nil {
			return fmt.Errorf("open snapshot database: %w", err)
		}
		defer repo.Close()

		n, err := repo.SaveTable(ctx, table)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		snap, err := repo.LatestSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		changedSource, snapshotID = repo.SourceID(), snap.ID
		logger.Info("Snapshot stored", "path", opts.dbPath, "snapshot_id", snap.ID, applog.FieldRows, n)
	}

	if opts.notify {
		if !cfg.AMQPEnabled() {
			return fmt.Errorf("-notify requires AMQP_URL")
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()

		msg := amqp.NewDatasetChangedMessage(changedSource, snapshotID, table.Len())
		if err := client.PublishDatasetChanged(ctx, msg); err != nil {
			return fmt.Errorf("publish dataset change: %w", err)
		}
		logger.Info("Dataset change published", applog.FieldSource, changedSource, "exchange", cfg.AMQPExchange)
	}
	return nil
}

// openSource returns the workbook named by -in, or the configured backend.
func openSource(ctx context.Context, cfg *config.Config, opts options) (sheets.TableSource, func() error, error) {
	noop := func() error { return nil }
	if opts.input != "" {
		return xlsx.New(opts.input, opts.sheet), noop, nil
	}

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, noop, err
	}
	if opts.sheet != "" {
		bc.DataSheet = opts.sheet
	}
	result, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, bc)
	if err != nil {
		return nil, noop, fmt.Errorf("create backend: %w", err)
	}
	return result.Source, result.Close, nil
}

func writeRecords(path string, t *core.Table) (export.Summary, error) {
	if path == "-" {
		return export.Write(os.Stdout, t)
	}
	f, err := os.Create(path)
	if err != nil {
		return export.Summary{}, fmt.Errorf("create output: %w", err)
	}
	summary, err := export.Write(f, t)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return summary, err
}

func printSummary(w io.Writer, s export.Summary, output string) {
	if output == "-" {
		output = "stdout"
	}
	fmt.Fprintf(w, "Exported %s records to %s\n", humanize.Comma(int64(s.Records)), output)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(s.Columns, ", "))
	if s.DateFrom != "" {
		fmt.Fprintf(w, "Date range: %s to %s\n", s.DateFrom, s.DateTo)
	}
	fmt.Fprintf(w, "Units: %s\n", strings.Join(s.Units, ", "))
	fmt.Fprintf(w, "Categories: %s\n", strings.Join(s.Categories, ", "))
}
