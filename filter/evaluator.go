package filter

import (
	"context"
	"runtime"

	"github.com/s0up4200/gyazo/gyazo"
	"golang.org/x/sync/errgroup"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*Evaluator)

// WithWorkers sets the number of concurrent chunk evaluations
func WithWorkers(workers int) EvaluatorOption {
	return func(e *Evaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the batch size for chunked processing
func WithBatchSize(size int) EvaluatorOption {
	return func(e *Evaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// Evaluator runs a filter over a list of images, splitting large lists
// into chunks evaluated concurrently
type Evaluator struct {
	workerCount int
	batchSize   int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the images matched by filter, in input order
func (e *Evaluator) Evaluate(ctx context.Context, filter Filter, images []gyazo.Image) ([]gyazo.Image, error) {
	if len(images) == 0 {
		return []gyazo.Image{}, nil
	}

	// For small lists, don't bother with concurrency
	if len(images) < e.batchSize {
		return evaluateSequential(filter, images), nil
	}

	return e.evaluateConcurrent(ctx, filter, images)
}

func evaluateSequential(filter Filter, images []gyazo.Image) []gyazo.Image {
	matches := make([]gyazo.Image, 0, len(images))
	for _, img := range images {
		if filter.Match(img) {
			matches = append(matches, img)
		}
	}
	return matches
}

func (e *Evaluator) evaluateConcurrent(ctx context.Context, filter Filter, images []gyazo.Image) ([]gyazo.Image, error) {
	chunkSize := max(len(images)/e.workerCount, e.batchSize)
	chunks := make([][]gyazo.Image, (len(images)+chunkSize-1)/chunkSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(images))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns its slot
			chunks[i] = evaluateSequential(filter, images[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}

	matches := make([]gyazo.Image, 0, total)
	for _, c := range chunks {
		matches = append(matches, c...)
	}
	return matches, nil
}
