package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"alsrescue/internal/classify"
	"alsrescue/internal/logging"
	"alsrescue/internal/scan"
	"alsrescue/internal/testsupport"
)

func seedTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	testsupport.WriteTree(t, root, map[string][]byte{
		"proj/Song.als":       testsupport.XMLSet,
		"packs/Drums.alp":     testsupport.ZIPHeader,
		"misc/old_backup.dat": testsupport.ZIPHeader,
		"takes/backup_v2.wav": []byte("RIFFnotreally"),
		"notes.txt":           []byte("plain text"),
	})
	return root
}

func runScan(t *testing.T, root, output string, workers int) *scan.Summary {
	t.Helper()

	scanner, err := scan.New(scan.Options{
		Root:       root,
		OutputRoot: output,
		Workers:    workers,
		Keywords:   []string{"backup"},
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	summary, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return summary
}

func TestScannerEndToEnd(t *testing.T) {
	root := seedTree(t)
	output := t.TempDir()

	summary := runScan(t, root, output, 4)

	if summary.State.FilesExamined != 5 {
		t.Fatalf("examined = %d, want 5", summary.State.FilesExamined)
	}
	// old_backup.dat carries a ZIP header, so it is a project file despite
	// the keyword in its name.
	wantKinds := map[classify.Kind]int64{
		classify.KindProjectFile:    2,
		classify.KindProjectArchive: 1,
		classify.KindKeywordMatch:   1,
	}
	for kind, want := range wantKinds {
		if got := summary.State.MatchesByKind[kind]; got != want {
			t.Fatalf("matches[%s] = %d, want %d", kind, got, want)
		}
	}
	if summary.State.CopiesSucceeded != 4 || summary.State.CopiesFailed != 0 {
		t.Fatalf("copies = %d/%d, want 4/0", summary.State.CopiesSucceeded, summary.State.CopiesFailed)
	}

	for _, rel := range []string{
		filepath.Join("ProjectFiles", "proj", "Song.als"),
		filepath.Join("ProjectFiles", "misc", "old_backup.dat"),
		filepath.Join("ProjectArchives", "packs", "Drums.alp"),
		filepath.Join("KeywordMatches", "takes", "backup_v2.wav"),
	} {
		if _, err := os.Stat(filepath.Join(output, rel)); err != nil {
			t.Fatalf("expected destination %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(output, "KeywordMatches", "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("unmatched file must not be copied")
	}
}

func TestScannerHeaderReadFailureDegrades(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks are bypassed for root")
	}

	root := t.TempDir()
	testsupport.WriteTree(t, root, map[string][]byte{
		"proj/Song.als":         testsupport.XMLSet,
		"takes/backup_take.dat": []byte("opaque"),
		"misc/sealed.dat":       []byte("opaque"),
	})
	for _, rel := range []string{"takes/backup_take.dat", "misc/sealed.dat"} {
		if err := os.Chmod(filepath.Join(root, rel), 0o000); err != nil {
			t.Fatal(err)
		}
	}

	output := t.TempDir()
	summary := runScan(t, root, output, 2)

	// Both unreadable files stay in the run: examined, sniff failure
	// recorded, classification continues on name signals alone.
	if summary.State.FilesExamined != 3 {
		t.Fatalf("examined = %d, want 3", summary.State.FilesExamined)
	}
	if got := summary.State.ErrorsByCategory[scan.CategoryHeaderRead]; got != 2 {
		t.Fatalf("header-read errors = %d, want 2", got)
	}
	if got := summary.State.MatchesByKind[classify.KindKeywordMatch]; got != 1 {
		t.Fatalf("keyword matches = %d, want 1", got)
	}

	// The keyword match's copy attempt fails on the same unreadable source,
	// which is a per-file copy error, not a dropped candidate.
	if summary.State.CopiesFailed != 1 {
		t.Fatalf("failed copies = %d, want 1", summary.State.CopiesFailed)
	}
	if got := summary.State.ErrorsByCategory[scan.CategoryCopy]; got != 1 {
		t.Fatalf("copy errors = %d, want 1", got)
	}
	if summary.State.CopiesSucceeded != 1 {
		t.Fatalf("succeeded copies = %d, want 1", summary.State.CopiesSucceeded)
	}
	if _, err := os.Stat(filepath.Join(output, "ProjectFiles", "proj", "Song.als")); err != nil {
		t.Fatalf("readable set should still be recovered: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "KeywordMatches", "takes", "backup_take.dat")); !os.IsNotExist(err) {
		t.Fatal("failed copy must not leave a destination behind")
	}
}

func TestScannerLogsCarryRunContext(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "Song.als"), testsupport.XMLSet)

	logPath := filepath.Join(t.TempDir(), "scan.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	scanner, err := scan.New(scan.Options{
		Root:       root,
		OutputRoot: t.TempDir(),
		Workers:    1,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := scanner.Run(logging.WithRunID(context.Background(), "run-123")); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "run_id=run-123") {
		t.Fatalf("expected run_id in log output, got %q", content)
	}
	if !strings.Contains(string(content), "stage=process") {
		t.Fatalf("expected worker stage in log output, got %q", content)
	}
}

func TestScannerWorkerCountInvariance(t *testing.T) {
	root := seedTree(t)

	sequential := runScan(t, root, t.TempDir(), 1)
	parallel := runScan(t, root, t.TempDir(), 8)

	if !reflect.DeepEqual(sequential.Matches, parallel.Matches) {
		t.Fatalf("match sets differ:\nseq: %v\npar: %v", sequential.Matches, parallel.Matches)
	}
	if sequential.State.FilesExamined != parallel.State.FilesExamined {
		t.Fatalf("examined differ: %d vs %d", sequential.State.FilesExamined, parallel.State.FilesExamined)
	}
	if !reflect.DeepEqual(sequential.State.MatchesByKind, parallel.State.MatchesByKind) {
		t.Fatalf("kind counts differ: %v vs %v", sequential.State.MatchesByKind, parallel.State.MatchesByKind)
	}
}

func TestScannerIdempotentRerun(t *testing.T) {
	root := seedTree(t)
	output := t.TempDir()

	first := runScan(t, root, output, 4)
	second := runScan(t, root, output, 4)

	if !reflect.DeepEqual(first.Matches, second.Matches) {
		t.Fatal("expected identical match sets across reruns")
	}
	if second.State.CopiesFailed != 0 {
		t.Fatalf("rerun should overwrite cleanly, got %d failures", second.State.CopiesFailed)
	}

	var destinations []string
	err := filepath.Walk(output, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			destinations = append(destinations, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(destinations) != 4 {
		t.Fatalf("expected 4 recovered files after rerun, got %d: %v", len(destinations), destinations)
	}
}

func TestScannerPreservesModificationTime(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Song.als")
	testsupport.WriteFile(t, src, testsupport.XMLSet)
	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}

	output := t.TempDir()
	runScan(t, root, output, 1)

	dstInfo, err := os.Stat(filepath.Join(output, "ProjectFiles", "Song.als"))
	if err != nil {
		t.Fatal(err)
	}
	if !dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		t.Fatalf("modification time not preserved: %v vs %v", dstInfo.ModTime(), srcInfo.ModTime())
	}
}

func TestScannerMissingRootFatal(t *testing.T) {
	scanner, err := scan.New(scan.Options{
		Root:       filepath.Join(t.TempDir(), "gone"),
		OutputRoot: t.TempDir(),
		Workers:    2,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := scanner.Run(context.Background()); err == nil {
		t.Fatal("expected fatal error for missing root")
	}
}

func TestScannerCancellation(t *testing.T) {
	root := seedTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner, err := scan.New(scan.Options{
		Root:       root,
		OutputRoot: t.TempDir(),
		Workers:    2,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	summary, err := scanner.Run(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if summary == nil {
		t.Fatal("expected partial summary on cancellation")
	}
}

func TestScannerReportsProgress(t *testing.T) {
	root := seedTree(t)

	var final scan.ProgressState
	scanner, err := scan.New(scan.Options{
		Root:       root,
		OutputRoot: t.TempDir(),
		Workers:    2,
		Keywords:   []string{"backup"},
		Logger:     logging.NewNop(),
		OnProgress: func(state scan.ProgressState) { final = state },
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := scanner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if final.FilesExamined != 5 {
		t.Fatalf("final progress examined = %d, want 5", final.FilesExamined)
	}
}
