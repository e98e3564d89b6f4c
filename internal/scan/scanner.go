package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"alsrescue/internal/classify"
	"alsrescue/internal/logging"
	"alsrescue/internal/organize"
)

// Options configure a Scanner.
type Options struct {
	Root        string
	OutputRoot  string
	Workers     int
	HeaderBytes int
	Keywords    []string
	Verify      bool
	Logger      *slog.Logger

	// OnProgress, when set, receives periodic progress snapshots and one
	// final snapshot when the scan completes.
	OnProgress       func(ProgressState)
	ProgressInterval time.Duration
}

// Summary is the terminal report of one scan run.
type Summary struct {
	State    ProgressState
	Matches  []classify.Result
	Outcomes []organize.Outcome
	Events   []ErrorEvent
	Duration time.Duration
}

// Scanner drives the whole pipeline: breadth-first enumeration fanned out to
// a bounded worker pool that classifies, plans, and copies, with results
// merged by a shared aggregator. Worker count affects only throughput and
// interleaving, never the outcome.
type Scanner struct {
	opts       Options
	classifier *classify.Classifier
	planner    *organize.Planner
	copier     *organize.Copier
	logger     *slog.Logger
}

// New constructs a scanner. Workers below 1 are clamped to 1, which runs the
// scan strictly sequentially.
func New(opts Options) (*Scanner, error) {
	if opts.Root == "" {
		return nil, errors.New("scan root is required")
	}
	if opts.OutputRoot == "" {
		return nil, errors.New("output root is required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.HeaderBytes <= 0 {
		opts.HeaderBytes = classify.DefaultHeaderBytes
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = time.Second
	}

	logger := logging.NewComponentLogger(opts.Logger, "scanner")
	return &Scanner{
		opts:       opts,
		classifier: classify.New(opts.Keywords),
		planner:    organize.NewPlanner(opts.Root, opts.OutputRoot),
		copier:     organize.NewCopier(opts.Verify, opts.Logger),
		logger:     logger,
	}, nil
}

// Run executes the scan until the tree is exhausted or ctx is cancelled.
// Fatal errors (inaccessible root) abort with a nil summary. Cancellation
// returns the partial summary together with ctx's error; recoverable errors
// never fail the run.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	agg := NewAggregator()

	// Carry run correlation fields from the context into every log line
	// this run emits, with the pipeline phase tagged per goroutine.
	logger := logging.WithContext(ctx, s.logger)
	enumCtx := logging.WithStage(ctx, "enumerate")
	enumLogger := logging.WithContext(enumCtx, s.logger)
	procCtx := logging.WithStage(ctx, "process")
	procLogger := logging.WithContext(procCtx, s.logger)

	logger.Info("scan starting",
		logging.String("root", s.opts.Root),
		logging.String("output", s.opts.OutputRoot),
		logging.Int("workers", s.opts.Workers),
		logging.Int("keywords", len(s.opts.Keywords)),
	)

	paths := make(chan string, s.opts.Workers*4)

	var walkErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(paths)
		walker := NewWalker(s.opts.Root)
		walkErr = walker.Run(ctx,
			func(path string) bool {
				select {
				case paths <- path:
					return true
				case <-ctx.Done():
					return false
				}
			},
			func(event ErrorEvent) {
				agg.RecordError(event)
				enumLogger.Warn("enumeration error",
					logging.String(logging.FieldPath, event.Path),
					logging.Error(event.Err),
				)
			},
		)
	}()

	wg.Add(s.opts.Workers)
	for i := 0; i < s.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			for path := range paths {
				if ctx.Err() != nil {
					// Drain without starting new work so the walker can
					// finish closing down.
					continue
				}
				s.process(procCtx, path, agg, procLogger)
			}
		}()
	}

	reporterDone := s.startReporter(ctx, agg)
	wg.Wait()
	reporterDone()

	if walkErr != nil {
		logger.Error("scan aborted", logging.Error(walkErr))
		return nil, walkErr
	}

	summary := &Summary{
		State:    agg.Snapshot(),
		Matches:  agg.Matches(),
		Outcomes: agg.Outcomes(),
		Events:   agg.Events(),
		Duration: time.Since(started),
	}
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(summary.State)
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("scan cancelled",
			logging.Int64("files_examined", summary.State.FilesExamined),
			logging.Int64("matches", summary.State.TotalMatches()),
		)
		return summary, err
	}

	logger.Info("scan complete",
		logging.Int64("files_examined", summary.State.FilesExamined),
		logging.Int64("matches", summary.State.TotalMatches()),
		logging.Int64("errors", summary.State.TotalErrors()),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// process runs one candidate through classify, plan, and copy. A failure at
// any step is attributed to this candidate and never terminates the worker.
func (s *Scanner) process(ctx context.Context, path string, agg *Aggregator, logger *slog.Logger) {
	agg.RecordExamined()

	var header []byte
	if s.classifier.NeedsHeader(path) {
		sniffed, err := classify.SniffHeader(path, s.opts.HeaderBytes)
		if err != nil {
			// Degrade to extension-only classification; the candidate
			// stays in consideration.
			agg.RecordError(ErrorEvent{Category: CategoryHeaderRead, Path: path, Err: err})
			logger.Debug("header read failed", logging.String(logging.FieldPath, path), logging.Error(err))
		} else {
			header = sniffed
		}
	}

	result := s.classifier.Classify(path, header)
	if result.Kind == classify.KindNone {
		return
	}
	agg.RecordMatch(result)
	logger.Info("match found",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldKind, string(result.Kind)),
		logging.String("basis", string(result.Basis)),
	)

	plan, err := s.planner.Plan(result)
	if err != nil {
		agg.RecordError(ErrorEvent{Category: CategoryPlan, Path: path, Err: err})
		return
	}

	outcome := s.copier.Copy(ctx, plan)
	agg.RecordOutcome(outcome)
	if !outcome.Succeeded {
		agg.RecordError(ErrorEvent{Category: CategoryCopy, Path: path, Err: errors.New(outcome.ErrorDetail)})
	}
}

func (s *Scanner) startReporter(ctx context.Context, agg *Aggregator) func() {
	if s.opts.OnProgress == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(s.opts.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.opts.OnProgress(agg.Snapshot())
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
