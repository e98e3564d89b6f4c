package organize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"alsrescue/internal/classify"
)

// ErrPathOutsideScanRoot marks a source path that does not live under the
// scan root. Enumeration discipline should make this impossible, but the
// planner defends against it rather than writing outside the output tree.
var ErrPathOutsideScanRoot = errors.New("path outside scan root")

// Plan maps a classified source file to its destination. The destination
// mirrors the source's path relative to the scan root under a kind-specific
// subdirectory, which makes destinations unique per source by construction:
// two distinct files cannot share both relative path and kind subdirectory.
type Plan struct {
	SourcePath      string
	DestinationPath string
	Kind            classify.Kind
}

// Planner derives output plans for one scan run.
type Planner struct {
	scanRoot   string
	outputRoot string
}

// NewPlanner constructs a planner for the given roots. Both are expected to
// be absolute, cleaned paths.
func NewPlanner(scanRoot, outputRoot string) *Planner {
	return &Planner{scanRoot: filepath.Clean(scanRoot), outputRoot: filepath.Clean(outputRoot)}
}

// Plan computes the mirrored destination for a classification result.
func (p *Planner) Plan(result classify.Result) (Plan, error) {
	rel, err := filepath.Rel(p.scanRoot, result.Path)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %s: %v", ErrPathOutsideScanRoot, result.Path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Plan{}, fmt.Errorf("%w: %s", ErrPathOutsideScanRoot, result.Path)
	}
	// A scan root that is itself a single file yields rel == ".".
	if rel == "." {
		rel = filepath.Base(result.Path)
	}

	return Plan{
		SourcePath:      result.Path,
		DestinationPath: filepath.Join(p.outputRoot, result.Kind.Subdir(), rel),
		Kind:            result.Kind,
	}, nil
}
