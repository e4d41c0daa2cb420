// Package batch converts and uploads multiple files with bounded
// parallelism and continue-on-error semantics: one file's failure never
// aborts its siblings.
package batch

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/openresponses/fileprep/internal/classify"
	"github.com/openresponses/fileprep/internal/convert"
)

// Uploader is the external upload capability the pipeline feeds. The
// pipeline's contract: payloads never exceed the size ceiling and the
// filename extension is always in the destination's accepted set.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string, dest classify.Destination) (string, error)
}

// Outcome is the per-file record of a batch run.
type Outcome struct {
	Path   string
	Result *convert.Result // nil on failure
	Handle string          // upload handle, empty on failure
	Err    error           // nil on success
}

// Summary aggregates a batch run. Failed files are reported with their
// specific error, never silently dropped.
type Summary struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

// Runner drives batch conversion. Each file owns its own conversion state,
// so files are processed independently with no ordering guarantees.
type Runner struct {
	service     *convert.Service
	uploader    Uploader
	concurrency int
	retry       RetryConfig
	logger      *slog.Logger
}

// RunnerConfig holds construction options for a Runner.
type RunnerConfig struct {
	Service     *convert.Service
	Uploader    Uploader // optional: nil skips the upload step
	Concurrency int      // defaults to 4
	Retry       RetryConfig
	Logger      *slog.Logger
}

// NewRunner builds a batch runner.
func NewRunner(config RunnerConfig) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = DefaultRetryConfig
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		service:     config.Service,
		uploader:    config.Uploader,
		concurrency: config.Concurrency,
		retry:       config.Retry,
		logger:      config.Logger,
	}
}

// Run converts every path for dest. Workers write into their own slot of
// the outcome slice, so no locking is needed. Errors are collected, not
// returned: a corrupted third file still leaves files four and five
// processed. Cancellation of ctx stops in-flight conversions at their next
// page/row check.
func (r *Runner) Run(ctx context.Context, paths []string, dest classify.Destination) Summary {
	outcomes := make([]Outcome, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			outcomes[i] = r.processOne(ctx, path, dest)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	r.logger.InfoContext(ctx, "batch complete",
		"total", len(paths),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"destination", dest.String(),
	)

	return summary
}

func (r *Runner) processOne(ctx context.Context, path string, dest classify.Destination) Outcome {
	outcome := Outcome{Path: path}

	res, err := r.service.Convert(ctx, path, dest)
	if err != nil {
		r.logger.WarnContext(ctx, "file conversion failed",
			"file", path,
			"error", err,
		)
		outcome.Err = err
		return outcome
	}
	outcome.Result = res

	if r.uploader == nil {
		return outcome
	}

	err = Retry(ctx, r.retry, func(attempt int) error {
		handle, uerr := r.uploader.Upload(ctx, res.ConvertedData, res.Filename, dest)
		if uerr != nil {
			r.logger.DebugContext(ctx, "upload attempt failed",
				"file", res.Filename,
				"attempt", attempt,
				"error", uerr,
			)
			return uerr
		}
		outcome.Handle = handle
		return nil
	})
	if err != nil {
		outcome.Err = err
	}

	return outcome
}
