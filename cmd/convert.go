package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openresponses/fileprep/internal/batch"
	"github.com/openresponses/fileprep/internal/classify"
	"github.com/openresponses/fileprep/internal/convert"
	"github.com/openresponses/fileprep/internal/storage"
)

var (
	flagDest      string
	flagOutputDir string
	flagIndexPath string
)

// buildUploader selects the local reference uploader for the destination:
// a content-addressed output store for general uploads, or a full-text
// index for the vector-store destination.
func buildUploader(dest classify.Destination, logger *slog.Logger) (batch.Uploader, func(), error) {
	if dest == classify.DestinationVectorStore && flagIndexPath != "" {
		store, err := storage.NewIndexStore(storage.IndexConfig{
			Path:   flagIndexPath,
			Rules:  classify.DefaultRuleset(),
			Logger: logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	store, err := storage.NewOutputStore(storage.OutputConfig{
		BasePath: flagOutputDir,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func newService(logger *slog.Logger) (*convert.Service, error) {
	tunables, err := convert.LoadTunables()
	if err != nil {
		return nil, fmt.Errorf("load tunables: %w", err)
	}
	return convert.NewService(convert.Config{
		Tunables: tunables,
		Logger:   logger,
	}), nil
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a single file for the chosen destination",
	Args:  cobra.ExactArgs(1),
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

		res, err := service.Convert(ctx, args[0], dest)
		if err != nil {
			logger.ErrorContext(ctx, "conversion failed",
				"file", args[0],
				"error", err,
			)
			os.Exit(1)
		}

		uploader, closeUploader, err := buildUploader(dest, logger)
		if err != nil {
			return err
		}
		defer closeUploader()

		handle, err := uploader.Upload(ctx, res.ConvertedData, res.Filename, dest)
		if err != nil {
			return err
		}

		fmt.Printf("%s -> %s (%s, %d bytes)\n", res.OriginalFilename, res.Filename, res.Method, len(res.ConvertedData))
		fmt.Printf("stored: %s\n", handle)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&flagDest, "dest", "general", "Destination: general, vector-store, or inline")
	convertCmd.Flags().StringVar(&flagOutputDir, "out", "./output", "Output directory for converted payloads")
	convertCmd.Flags().StringVar(&flagIndexPath, "index", "", "Full-text index path for the vector-store destination")

	rootCmd.AddCommand(convertCmd)
}
