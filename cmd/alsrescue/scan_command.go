package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"alsrescue/internal/classify"
	"alsrescue/internal/config"
	"alsrescue/internal/logging"
	"alsrescue/internal/manifest"
	"alsrescue/internal/preflight"
	"alsrescue/internal/scan"
)

const lockFileName = ".alsrescue.lock"

func newScanCommand(ctx *commandContext) *cobra.Command {
	var keywords []string
	var workers int
	var verify bool
	var noPreflight bool

	cmd := &cobra.Command{
		Use:   "scan <scan-root> [output-root]",
		Short: "Scan a directory tree and copy recovered project files",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			scanRoot, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve scan root: %w", err)
			}
			if len(args) > 1 {
				outputRoot, err := config.ExpandPath(args[1])
				if err != nil {
					return fmt.Errorf("resolve output root: %w", err)
				}
				cfg.Paths.OutputDir = outputRoot
			}
			if cmd.Flags().Changed("keyword") {
				cfg.Scan.Keywords = keywords
			}
			if cmd.Flags().Changed("workers") {
				if workers <= 0 {
					workers = runtime.NumCPU()
				}
				cfg.Scan.Workers = workers
			}
			if cmd.Flags().Changed("verify") {
				cfg.Scan.VerifyCopies = verify
			}

			if !noPreflight {
				results := preflight.RunAll(cfg, scanRoot)
				printPreflight(cmd, results)
				if !preflight.AllPassed(results) {
					return errors.New("preflight checks failed")
				}
			}

			return runScan(cmd, cfg, scanRoot)
		},
	}

	cmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "Filename keyword to match (repeatable, replaces configured keywords)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent workers (0 uses all CPUs)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Verify each copy with a SHA-256 comparison")
	cmd.Flags().BoolVar(&noPreflight, "no-preflight", false, "Skip environment checks before scanning")
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, scanRoot string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another scan is already writing to %s", cfg.Paths.OutputDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release output lock", logging.Error(err))
		}
	}()

	store, err := manifest.Open(cfg.Paths.ManifestPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer store.Close()

	run, err := store.BeginRun(signalCtx, scanRoot, cfg.Paths.OutputDir, cfg.Scan.Keywords, cfg.Scan.Workers)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	runCtx := logging.WithRunID(signalCtx, run.ID)
	logger.Info("scan starting",
		logging.String("run_id", run.ID),
		logging.String("scan_root", scanRoot),
		logging.String("output_root", cfg.Paths.OutputDir),
		logging.Int("workers", cfg.Scan.Workers),
		logging.Bool("verify", cfg.Scan.VerifyCopies),
	)

	progress := newProgressPrinter(cmd.ErrOrStderr())
	scanner, err := scan.New(scan.Options{
		Root:        scanRoot,
		OutputRoot:  cfg.Paths.OutputDir,
		Workers:     cfg.Scan.Workers,
		HeaderBytes: cfg.Scan.HeaderBytes,
		Keywords:    cfg.Scan.Keywords,
		Verify:      cfg.Scan.VerifyCopies,
		Logger:      logger,
		OnProgress:  progress.update,
	})
	if err != nil {
		finishRun(store, run.ID, manifest.RunStatusFailed, nil, logger)
		return err
	}

	summary, scanErr := scanner.Run(runCtx)
	progress.done()

	status := manifest.RunStatusSucceeded
	switch {
	case scanErr != nil && errors.Is(scanErr, context.Canceled):
		status = manifest.RunStatusCancelled
	case scanErr != nil:
		status = manifest.RunStatusFailed
	}

	if summary != nil {
		if err := store.RecordResults(context.Background(), run.ID, manifestResults(run.ID, summary)); err != nil {
			logger.Warn("record results", logging.Error(err))
		}
	}
	finishRun(store, run.ID, status, summary, logger)

	if summary != nil {
		printSummary(cmd, summary)
		printFailedCopies(cmd, summary)
	}
	// Recoverable errors, copy failures included, never fail the run; the
	// summary and failed-copies listing carry them. Only fatal errors and
	// cancellation produce a non-zero exit.
	return scanErr
}

func finishRun(store *manifest.Store, runID string, status manifest.RunStatus, summary *scan.Summary, logger *slog.Logger) {
	var examined, errs int64
	if summary != nil {
		examined = summary.State.FilesExamined
		errs = summary.State.TotalErrors()
	}
	if err := store.FinishRun(context.Background(), runID, status, examined, errs); err != nil {
		logger.Warn("record run finish", logging.Error(err))
	}
}

// manifestResults joins classification matches with copy outcomes so each
// stored row carries both the classification basis and the copy result.
func manifestResults(runID string, summary *scan.Summary) []manifest.Result {
	basisBySource := make(map[string]classify.Basis, len(summary.Matches))
	for _, match := range summary.Matches {
		basisBySource[match.Path] = match.Basis
	}

	results := make([]manifest.Result, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		results = append(results, manifest.Result{
			RunID:           runID,
			SourcePath:      outcome.Plan.SourcePath,
			DestinationPath: outcome.Plan.DestinationPath,
			Kind:            string(outcome.Plan.Kind),
			Basis:           string(basisBySource[outcome.Plan.SourcePath]),
			Copied:          outcome.Succeeded,
			ErrorDetail:     outcome.ErrorDetail,
		})
	}
	return results
}

func printPreflight(cmd *cobra.Command, results []preflight.Result) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "OK"
		}
		fmt.Fprintf(out, "  %-18s [%s] %s\n", r.Name+":", status, r.Detail)
	}
}

func printSummary(cmd *cobra.Command, summary *scan.Summary) {
	state := summary.State
	rows := [][]string{
		{"Files examined", fmt.Sprintf("%d", state.FilesExamined)},
		{"Project files", fmt.Sprintf("%d", state.MatchesByKind[classify.KindProjectFile])},
		{"Project archives", fmt.Sprintf("%d", state.MatchesByKind[classify.KindProjectArchive])},
		{"Keyword matches", fmt.Sprintf("%d", state.MatchesByKind[classify.KindKeywordMatch])},
		{"Copies succeeded", fmt.Sprintf("%d", state.CopiesSucceeded)},
		{"Copies failed", fmt.Sprintf("%d", state.CopiesFailed)},
		{"Errors", fmt.Sprintf("%d", state.TotalErrors())},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func printFailedCopies(cmd *cobra.Command, summary *scan.Summary) {
	var lines []string
	for _, outcome := range summary.Outcomes {
		if outcome.Succeeded {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", outcome.Plan.SourcePath, outcome.ErrorDetail))
	}
	if len(lines) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Failed copies:")
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
