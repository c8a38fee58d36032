package worker

import (
	"context"

	"github.com/mkang/heritaged/internal/model"
)

// FileImporter turns one file on disk into a stored asset
type FileImporter interface {
	ImportFile(ctx context.Context, path string) (*model.Asset, error)
}

// ImportJob imports a single file
type ImportJob struct {
	Path     string
	Importer FileImporter
	Limiter  *Limiter
}

// Execute runs the import, pacing against the limiter first
func (j *ImportJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx); err != nil {
			return &ImportResult{Path: j.Path, Error: err}
		}
	}
	asset, err := j.Importer.ImportFile(ctx, j.Path)
	return &ImportResult{Path: j.Path, Asset: asset, Error: err}
}

// ImportResult is the outcome for one file. Per-file errors are
// recorded here, not propagated; a batch always runs to completion.
type ImportResult struct {
	Path  string
	Asset *model.Asset
	Error error
}

// GetError returns the error from the import result
func (r *ImportResult) GetError() error {
	return r.Error
}

// BatchImporter imports many files concurrently
type BatchImporter struct {
	importer    FileImporter
	concurrency int
	limiter     *Limiter
}

// NewBatchImporter creates a batch importer with the given concurrency
// and rate limit toward the analysis service
func NewBatchImporter(importer FileImporter, concurrency int, requestsPerSecond float64, burst int) *BatchImporter {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchImporter{
		importer:    importer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// Run imports every path and returns one result per path
func (b *BatchImporter) Run(ctx context.Context, paths []string) []*ImportResult {
	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, path := range paths {
		pool.Submit(&ImportJob{Path: path, Importer: b.importer, Limiter: b.limiter})
	}

	raw := pool.Wait()
	close(done)
	results := make([]*ImportResult, 0, len(raw))
	for _, r := range raw {
		if ir, ok := r.(*ImportResult); ok {
			results = append(results, ir)
		}
	}
	return results
}
