package browser

import (
	"context"
	"time"

	"bloodage/internal/calculator"
	"bloodage/internal/history"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgeReader reads the age shown for a calculator URL. Extractor is the
// browser-backed implementation.
type AgeReader interface {
	Extract(ctx context.Context, url string) Extraction
}

// Options tunes Process.
type Options struct {
	// Delay is the pause between pages.
	Delay time.Duration
	// Skip lists dates that already have a result.
	Skip map[string]bool
	// OnResult is called after each page, with its 1-based position.
	OnResult func(i, total int, r history.Result)
	Logger   *zap.Logger
}

// Process reads every entry one page at a time. A failing page yields a
// TIMEOUT or ERROR row and the loop continues. Cancelling ctx stops the loop
// and returns the rows collected so far.
func Process(ctx context.Context, reader AgeReader, entries []calculator.Entry, opts Options) []history.Result {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run", uuid.NewString()))

	todo := make([]calculator.Entry, 0, len(entries))
	for _, e := range entries {
		if opts.Skip[e.Date] {
			logger.Debug("Skipping processed date", zap.String("date", e.Date))
			continue
		}
		todo = append(todo, e)
	}
	logger.Info("Processing URLs", zap.Int("total", len(todo)), zap.Int("skipped", len(entries)-len(todo)))

	results := make([]history.Result, 0, len(todo))
	for i, e := range todo {
		if ctx.Err() != nil {
			logger.Warn("Processing cancelled", zap.Int("done", i), zap.Int("total", len(todo)))
			break
		}
		if i > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				logger.Warn("Processing cancelled", zap.Int("done", i), zap.Int("total", len(todo)))
				break
			}
		}

		x := reader.Extract(ctx, e.URL)
		r := x.Result(e.Date)
		results = append(results, r)

		fields := []zap.Field{zap.String("date", e.Date), zap.String("age", r.Age), zap.Int("n", i+1), zap.Int("total", len(todo))}
		switch r.Age {
		case history.StatusTimeout, history.StatusVerify:
			logger.Warn("No age read", fields...)
		case history.StatusError:
			logger.Error("Extraction failed", append(fields, zap.String("note", r.Notes))...)
		default:
			logger.Info("Age extracted", fields...)
		}
		if opts.OnResult != nil {
			opts.OnResult(i+1, len(todo), r)
		}
	}
	return results
}
