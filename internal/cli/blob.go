package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var blobTimeout time.Duration

// blobCmd groups direct content-store operations, bypassing the vault
var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Work with the content store directly",
	Long: `Blob stores and fetches raw content through the tiered store without
creating an asset record. Useful for checking node connectivity and for
recovering content by identifier.`,
}

var blobStoreCmd = &cobra.Command{
	Use:   "store <file>",
	Short: "Store a file and print its content identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), blobTimeout)
		defer cancel()

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		facade := newFacade(cfg)
		rec, err := facade.Store(ctx, content, filepath.Base(args[0]))
		if err != nil {
			return err
		}

		if rec.RemoteErr() != nil {
			fmt.Fprintf(os.Stderr, "remote store unavailable (%v), stored on local fallback\n", rec.RemoteErr())
		}
		fmt.Println(rec.Identifier)
		return nil
	},
}

var blobGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch content by identifier and write it to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), blobTimeout)
		defer cancel()

		facade := newFacade(cfg)
		data, err := facade.Retrieve(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var blobStatCmd = &cobra.Command{
	Use:   "stat <id>",
	Short: "Print stored metadata for an identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), blobTimeout)
		defer cancel()

		facade := newFacade(cfg)
		rec, err := facade.Describe(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("identifier: %s\n", rec.Identifier)
		fmt.Printf("origin:     %s\n", rec.Origin)
		fmt.Printf("size:       %d bytes\n", rec.SizeBytes)
		if rec.OriginalName != "" {
			fmt.Printf("name:       %s\n", rec.OriginalName)
		}
		if url := facade.GatewayURL(rec.Identifier); url != "" {
			fmt.Printf("gateway:    %s\n", url)
		}
		return nil
	},
}

var blobRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove content by identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), blobTimeout)
		defer cancel()

		return newFacade(cfg).Delete(ctx, args[0])
	},
}

func init() {
	rootCmd.AddCommand(blobCmd)
	blobCmd.AddCommand(blobStoreCmd)
	blobCmd.AddCommand(blobGetCmd)
	blobCmd.AddCommand(blobStatCmd)
	blobCmd.AddCommand(blobRmCmd)

	blobCmd.PersistentFlags().DurationVar(&blobTimeout, "timeout", 60*time.Second, "operation timeout")
}
