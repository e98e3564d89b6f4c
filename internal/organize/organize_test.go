package organize_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"alsrescue/internal/classify"
	"alsrescue/internal/logging"
	"alsrescue/internal/organize"
)

func TestPlanMirrorsRelativePath(t *testing.T) {
	planner := organize.NewPlanner("/data/scan", "/data/out")

	plan, err := planner.Plan(classify.Result{
		Path: "/data/scan/proj/Song.als",
		Kind: classify.KindProjectFile,
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	want := filepath.Join("/data/out", "ProjectFiles", "proj", "Song.als")
	if plan.DestinationPath != want {
		t.Fatalf("destination = %q, want %q", plan.DestinationPath, want)
	}
}

func TestPlanKindSubdirsDiffer(t *testing.T) {
	planner := organize.NewPlanner("/scan", "/out")

	kinds := []classify.Kind{classify.KindProjectFile, classify.KindProjectArchive, classify.KindKeywordMatch}
	seen := map[string]bool{}
	for _, kind := range kinds {
		plan, err := planner.Plan(classify.Result{Path: "/scan/a/b.dat", Kind: kind})
		if err != nil {
			t.Fatalf("Plan(%q) returned error: %v", kind, err)
		}
		if seen[plan.DestinationPath] {
			t.Fatalf("duplicate destination %q", plan.DestinationPath)
		}
		seen[plan.DestinationPath] = true
	}
}

func TestPlanRejectsPathOutsideScanRoot(t *testing.T) {
	planner := organize.NewPlanner("/data/scan", "/data/out")

	_, err := planner.Plan(classify.Result{Path: "/elsewhere/file.als", Kind: classify.KindProjectFile})
	if err == nil {
		t.Fatal("expected error for path outside scan root")
	}
}

func TestPlanSingleFileRoot(t *testing.T) {
	planner := organize.NewPlanner("/data/scan/Song.als", "/out")

	plan, err := planner.Plan(classify.Result{Path: "/data/scan/Song.als", Kind: classify.KindProjectFile})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if want := filepath.Join("/out", "ProjectFiles", "Song.als"); plan.DestinationPath != want {
		t.Fatalf("destination = %q, want %q", plan.DestinationPath, want)
	}
}

func TestCopierCreatesIntermediateDirectories(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Song.als")
	if err := os.WriteFile(src, []byte("<?xml?>"), 0o644); err != nil {
		t.Fatal(err)
	}

	copier := organize.NewCopier(false, logging.NewNop())
	plan := organize.Plan{
		SourcePath:      src,
		DestinationPath: filepath.Join(dir, "out", "ProjectFiles", "deep", "Song.als"),
		Kind:            classify.KindProjectFile,
	}

	outcome := copier.Copy(context.Background(), plan)
	if !outcome.Succeeded {
		t.Fatalf("copy failed: %s", outcome.ErrorDetail)
	}
	if _, err := os.Stat(plan.DestinationPath); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestCopierIsolatesFailure(t *testing.T) {
	dir := t.TempDir()
	copier := organize.NewCopier(false, logging.NewNop())

	outcome := copier.Copy(context.Background(), organize.Plan{
		SourcePath:      filepath.Join(dir, "vanished.als"),
		DestinationPath: filepath.Join(dir, "out", "ProjectFiles", "vanished.als"),
		Kind:            classify.KindProjectFile,
	})
	if outcome.Succeeded {
		t.Fatal("expected failed outcome for vanished source")
	}
	if outcome.ErrorDetail == "" {
		t.Fatal("expected error detail")
	}
}

func TestCopierHonorsCancelledContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Song.als")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	copier := organize.NewCopier(false, logging.NewNop())
	dst := filepath.Join(dir, "out", "ProjectFiles", "Song.als")
	outcome := copier.Copy(ctx, organize.Plan{SourcePath: src, DestinationPath: dst, Kind: classify.KindProjectFile})
	if outcome.Succeeded {
		t.Fatal("expected failure for cancelled context")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("expected destination to be untouched")
	}
}

func TestCopierVerifiedCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Pack.alp")
	if err := os.WriteFile(src, []byte("PK\x03\x04pack bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	copier := organize.NewCopier(true, logging.NewNop())
	dst := filepath.Join(dir, "out", "ProjectArchives", "Pack.alp")
	outcome := copier.Copy(context.Background(), organize.Plan{SourcePath: src, DestinationPath: dst, Kind: classify.KindProjectArchive})
	if !outcome.Succeeded {
		t.Fatalf("verified copy failed: %s", outcome.ErrorDetail)
	}
}
