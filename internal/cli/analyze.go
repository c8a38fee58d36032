package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkang/heritaged/internal/analyze"
	"github.com/mkang/heritaged/internal/model"
)

var (
	analyzeTimeout  time.Duration
	analyzeProvider string
	analyzeModel    string
	analyzeBaseURL  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Classify a single file and print the result",
	Long: `Analyze runs one file through the classification tier and prints the
result as JSON. With no provider configured the deterministic rules are
used; with --provider the remote tier is tried first and the rules serve
as fallback.

Example:
  heritaged analyze contract_2024.pdf
  heritaged analyze wedding.jpg --provider openai
  heritaged analyze family.mp4 --provider http --base-url http://localhost:8600`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Second, "analysis timeout")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "remote provider (http, openai); empty uses rules only")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "model name for the openai provider")
	analyzeCmd.Flags().StringVar(&analyzeBaseURL, "base-url", "", "base URL for the http provider")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	provider, err := analyze.NewProvider(analyze.Config{
		Provider: analyzeProvider,
		BaseURL:  analyzeBaseURL,
		APIKey:   os.Getenv("OPENAI_API_KEY"),
		Model:    analyzeModel,
		Timeout:  analyzeTimeout,
	})
	if err != nil {
		return err
	}

	description := ""
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		description = analyze.PDFText(path, 512)
	}

	resolver := analyze.NewResolver(provider, nil)
	outcome := resolver.Resolve(ctx, model.AssetInfo{
		FileName:    filepath.Base(path),
		FileType:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		FileSize:    fi.Size(),
		Description: description,
	})

	if outcome.RemoteErr != nil && verbose {
		fmt.Fprintf(os.Stderr, "remote analysis unavailable, using rules: %v\n", outcome.RemoteErr)
	}

	out, err := json.MarshalIndent(outcome.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
