package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openresponses/fileprep/internal/batch"
	"github.com/openresponses/fileprep/internal/classify"
)

var flagConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Convert and upload multiple files, continuing past failures",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		logger, err := loadLogger()
		if err != nil {
			return err
		}

		dest, ok := classify.ParseDestination(flagDest)
		if !ok {
			return fmt.Errorf("unknown destination %q (general, vector-store, inline)", flagDest)
		}

		service, err := newService(logger)
		if err != nil {
			return err
		}

		uploader, closeUploader, err := buildUploader(dest, logger)
		if err != nil {
			return err
		}
		defer closeUploader()

		runner := batch.NewRunner(batch.RunnerConfig{
			Service:     service,
			Uploader:    uploader,
			Concurrency: flagConcurrency,
			Logger:      logger,
		})

		summary := runner.Run(ctx, args, dest)

		for _, o := range summary.Outcomes {
			if o.Err != nil {
				fmt.Printf("FAIL  %s: %v\n", o.Path, o.Err)
				continue
			}
			fmt.Printf("OK    %s -> %s (%s) %s\n", o.Path, o.Result.Filename, o.Result.Method, o.Handle)
		}
		fmt.Printf("\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)

		if summary.Failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&flagDest, "dest", "general", "Destination: general, vector-store, or inline")
	batchCmd.Flags().StringVar(&flagOutputDir, "out", "./output", "Output directory for converted payloads")
	batchCmd.Flags().StringVar(&flagIndexPath, "index", "", "Full-text index path for the vector-store destination")
	batchCmd.Flags().IntVar(&flagConcurrency, "concurrency", 4, "Maximum files converted in parallel")

	rootCmd.AddCommand(batchCmd)
}
