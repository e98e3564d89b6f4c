package organize

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"alsrescue/internal/fileutil"
	"alsrescue/internal/logging"
)

// Outcome is the terminal record of one copy attempt. Failures are isolated
// to the file they concern; the run continues.
type Outcome struct {
	Plan        Plan
	Succeeded   bool
	ErrorDetail string
}

// Copier executes output plans. Several copier workers may run concurrently:
// destinations never collide, so directory creation is the only shared point
// and MkdirAll keeps it idempotent.
type Copier struct {
	verify bool
	logger *slog.Logger
}

// NewCopier constructs a copier. With verify set, every copy is checked with
// SHA-256 before it counts as recovered.
func NewCopier(verify bool, logger *slog.Logger) *Copier {
	return &Copier{verify: verify, logger: logging.NewComponentLogger(logger, "copier")}
}

// Copy performs the plan's copy with metadata preservation. A context already
// cancelled before the copy starts fails the outcome without touching the
// destination; a copy already in flight runs to completion so the output tree
// never holds a truncated file.
func (c *Copier) Copy(ctx context.Context, plan Plan) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Plan: plan, ErrorDetail: err.Error()}
	}

	logger := logging.WithContext(ctx, c.logger)

	if err := os.MkdirAll(filepath.Dir(plan.DestinationPath), 0o755); err != nil {
		logger.Warn("create destination directory failed",
			logging.String(logging.FieldPath, plan.DestinationPath),
			logging.Error(err),
		)
		return Outcome{Plan: plan, ErrorDetail: err.Error()}
	}

	copyFn := fileutil.CopyFilePreserve
	if c.verify {
		copyFn = fileutil.CopyFileVerifiedPreserve
	}
	if err := copyFn(plan.SourcePath, plan.DestinationPath); err != nil {
		logger.Warn("copy failed",
			logging.String(logging.FieldPath, plan.SourcePath),
			logging.String("destination", plan.DestinationPath),
			logging.Error(err),
		)
		return Outcome{Plan: plan, ErrorDetail: err.Error()}
	}

	logger.Debug("copied",
		logging.String(logging.FieldPath, plan.SourcePath),
		logging.String("destination", plan.DestinationPath),
		logging.String(logging.FieldKind, string(plan.Kind)),
	)
	return Outcome{Plan: plan, Succeeded: true}
}
