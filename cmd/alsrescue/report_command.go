package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"alsrescue/internal/manifest"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var listRuns int

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show results of a recorded scan run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := manifest.Open(cfg.Paths.ManifestPath)
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer store.Close()

			if cmd.Flags().Changed("list") {
				return printRunList(cmd, store, listRuns)
			}

			var run *manifest.Run
			if len(args) > 0 {
				run, err = store.GetRun(cmd.Context(), args[0])
			} else {
				run, err = store.LatestRun(cmd.Context())
			}
			if errors.Is(err, manifest.ErrRunNotFound) {
				return errors.New("no recorded runs found; run a scan first")
			}
			if err != nil {
				return fmt.Errorf("load run: %w", err)
			}

			return printRunReport(cmd, store, run)
		},
	}

	cmd.Flags().IntVar(&listRuns, "list", 10, "List the most recent runs instead of one run's details")
	cmd.Flags().Lookup("list").NoOptDefVal = "10"
	return cmd
}

func printRunList(cmd *cobra.Command, store *manifest.Store, limit int) error {
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.ScanRoot,
			string(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", run.FilesExamined),
			fmt.Sprintf("%d", run.ErrorsTotal),
		})
	}
	headers := []string{"Run", "Scan root", "Status", "Started", "Examined", "Errors"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
	return nil
}

func printRunReport(cmd *cobra.Command, store *manifest.Store, run *manifest.Run) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Run:         %s\n", run.ID)
	fmt.Fprintf(out, "Status:      %s\n", run.Status)
	fmt.Fprintf(out, "Scan root:   %s\n", run.ScanRoot)
	fmt.Fprintf(out, "Output root: %s\n", run.OutputRoot)
	if len(run.Keywords) > 0 {
		fmt.Fprintf(out, "Keywords:    %s\n", strings.Join(run.Keywords, ", "))
	}
	fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(time.RFC1123))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished:    %s\n", run.FinishedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(out, "Examined:    %d files, %d errors\n", run.FilesExamined, run.ErrorsTotal)

	counts, err := store.CountsByKind(cmd.Context(), run.ID)
	if err != nil {
		return fmt.Errorf("load counts: %w", err)
	}
	if len(counts) > 0 {
		kinds := make([]string, 0, len(counts))
		for kind := range counts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		fmt.Fprintln(out)
		for _, kind := range kinds {
			fmt.Fprintf(out, "  %-16s %d\n", kind+":", counts[kind])
		}
	}

	results, err := store.ResultsForRun(cmd.Context(), run.ID)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "\nNo files recovered in this run")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		detail := result.ErrorDetail
		if result.Copied {
			detail = result.DestinationPath
		}
		rows = append(rows, []string{
			result.SourcePath,
			result.Kind,
			result.Basis,
			yesNo(result.Copied),
			detail,
		})
	}
	headers := []string{"Source", "Kind", "Basis", "Copied", "Destination / Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}
