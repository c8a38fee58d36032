package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkang/heritaged/internal/worker"
)

var (
	importConcurrency int
	importTimeout     time.Duration
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import a directory of files into the vault in parallel",
	Long: `Import walks a directory tree and runs every regular file through the
full creation workflow: classification, tiered content storage, and the
vault record. Files are processed in parallel with a configurable worker
count; remote calls are rate limited.

Example:
  heritaged import ~/Documents/legacy
  heritaged import ./photos --concurrency 8
  heritaged import ./archive --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().IntVar(&importConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 10*time.Minute, "total timeout for the import")
}

func runImport(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if importConcurrency > 0 {
		cfg.Concurrency.ImportWorkers = importConcurrency
	}
	logger := newLogger(cfg)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories like .git
			if name := d.Name(); name != "." && len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files found under %s", dir)
	}

	fmt.Fprintf(os.Stderr, "Importing %d files with %d workers...\n", len(paths), cfg.Concurrency.ImportWorkers)

	importer := worker.NewBatchImporter(a.service,
		cfg.Concurrency.ImportWorkers,
		cfg.RateLimiting.RequestsPerSecond,
		cfg.RateLimiting.BurstSize)
	results := importer.Run(ctx, paths)

	succeeded, failed := 0, 0
	for _, res := range results {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Path, res.Error)
			continue
		}
		succeeded++
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s [%s] importance %d -> %s\n",
				res.Path, res.Asset.Category, res.Asset.Importance, res.Asset.ID)
		}
	}

	fmt.Fprintf(os.Stderr, "\nImported: %d  Failed: %d\n", succeeded, failed)
	if failed > 0 && succeeded == 0 {
		return fmt.Errorf("all %d imports failed", failed)
	}
	return nil
}
