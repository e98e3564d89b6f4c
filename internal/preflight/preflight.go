package preflight

import (
	"alsrescue/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for a scan of scanRoot into the
// configured output directory.
func RunAll(cfg *config.Config, scanRoot string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckScanRoot(scanRoot),
		CheckOutputRoot(cfg.Paths.OutputDir),
	}

	if cfg.Scan.MinFreeGiB > 0 {
		results = append(results, CheckFreeSpace(cfg.Paths.OutputDir, float64(cfg.Scan.MinFreeGiB)))
	}

	return results
}

// AllPassed reports whether every check in results succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
