package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkang/heritaged/internal/model"
)

// mockImporter implements FileImporter
type mockImporter struct {
	calls   int32
	failFor string // substring: matching paths fail
	delay   time.Duration
}

func (m *mockImporter) ImportFile(ctx context.Context, path string) (*model.Asset, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failFor != "" && strings.Contains(path, m.failFor) {
		return nil, errors.New("unreadable file")
	}
	return &model.Asset{ID: "id-" + filepath.Base(path), Name: filepath.Base(path)}, nil
}

func TestBatchImporter_Run(t *testing.T) {
	importer := &mockImporter{}
	b := NewBatchImporter(importer, 4, 1000, 100)

	paths := []string{"/a/one.jpg", "/a/two.pdf", "/a/three.txt"}
	results := b.Run(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	if got := atomic.LoadInt32(&importer.calls); got != int32(len(paths)) {
		t.Errorf("importer called %d times, want %d", got, len(paths))
	}
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("%s: unexpected error %v", res.Path, res.Error)
		}
		if res.Asset == nil {
			t.Errorf("%s: nil asset", res.Path)
		}
	}
}

func TestBatchImporter_Run_PartialFailure(t *testing.T) {
	importer := &mockImporter{failFor: "bad"}
	b := NewBatchImporter(importer, 2, 1000, 100)

	paths := []string{"/a/good.jpg", "/a/bad.bin", "/a/fine.pdf"}
	results := b.Run(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d; one failure must not stop the batch", len(results), len(paths))
	}

	failures := 0
	for _, res := range results {
		if res.Error != nil {
			failures++
			if !strings.Contains(res.Path, "bad") {
				t.Errorf("unexpected failure for %s: %v", res.Path, res.Error)
			}
		}
	}
	if failures != 1 {
		t.Errorf("got %d failures, want 1", failures)
	}
}

func TestBatchImporter_Run_ContextCancelled(t *testing.T) {
	importer := &mockImporter{delay: 50 * time.Millisecond}
	b := NewBatchImporter(importer, 1, 1000, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	paths := make([]string, 20)
	for i := range paths {
		paths[i] = "/a/slow.bin"
	}

	done := make(chan struct{})
	var results []*ImportResult
	go func() {
		results = b.Run(ctx, paths)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	if len(results) == len(paths) {
		t.Error("all jobs completed despite cancellation")
	}
}

func TestImportJob_Execute_RateLimited(t *testing.T) {
	importer := &mockImporter{}
	limiter := NewLimiter(1000, 10)

	job := &ImportJob{Path: "/a/x.txt", Importer: importer, Limiter: limiter}
	res := job.Execute(context.Background())

	ir, ok := res.(*ImportResult)
	if !ok {
		t.Fatalf("result type %T, want *ImportResult", res)
	}
	if ir.GetError() != nil {
		t.Errorf("GetError = %v", ir.GetError())
	}
	if ir.Asset == nil {
		t.Error("nil asset")
	}
}
