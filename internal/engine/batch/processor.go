package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Default batch processing configuration.
const (
	// DefaultBatchSize is the default number of items per batch.
	DefaultBatchSize = 100

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size.
	MaxBatchSize = 1000

	// DefaultWorkers is the default number of items processed at once.
	DefaultWorkers = 4
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 1000")
	ErrInvalidWorkers   = errors.New("worker count must be at least 1")
	ErrNilFunc          = errors.New("batch function cannot be nil")
)

// ItemFunc computes the result for one item. index is the item's position in
// the input slice.
type ItemFunc[T, R any] func(ctx context.Context, index int, item T) (R, error)

// ProgressCallback is an optional callback invoked after each batch completes.
type ProgressCallback func(snapshot ProgressSnapshot)

// Processor maps items to results batch by batch.
type Processor[T, R any] struct {
	batchSize  int
	workers    int
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given batch size and worker count.
func NewProcessor[T, R any](batchSize, workers int) (*Processor[T, R], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	return &Processor[T, R]{batchSize: batchSize, workers: workers}, nil
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T, R]) WithProgressCallback(callback ProgressCallback) *Processor[T, R] {
	p.onProgress = callback
	return p
}

// Map applies fn to every item and returns the results in input order.
// An empty input yields an empty result. The first error cancels the
// remaining work in its batch and stops further batches.
func (p *Processor[T, R]) Map(ctx context.Context, items []T, fn ItemFunc[T, R]) ([]R, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	bounds := p.Batches(len(items))
	progress := NewProgress(len(items), len(bounds), p.batchSize)

	for batchIndex, b := range bounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for i := b[0]; i < b[1]; i++ {
			g.Go(func() error {
				r, err := fn(gctx, i, items[i])
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", batchIndex, err)
		}

		progress.AddProcessed(b[1] - b[0])
		if p.onProgress != nil {
			p.onProgress(progress.Snapshot())
		}
	}

	return results, nil
}

// Batches returns the [start, end) boundaries used for totalItems items.
func (p *Processor[T, R]) Batches(totalItems int) [][2]int {
	n := totalItems / p.batchSize
	if totalItems%p.batchSize > 0 {
		n++
	}
	out := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		out[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return out
}
