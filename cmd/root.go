package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog"
	"github.com/spf13/cobra"
)

// cmdConfig holds logging configuration shared by all commands.
type cmdConfig struct {
	Format string `env:"LOG_FORMAT" env-default:"text" env-description:"Log output format (text or json)"`
	Level  string `env:"LOG_LEVEL" env-default:"info" env-description:"Log level (debug, info, warn, error)"`
}

// createLogger creates a slog logger from the configuration
func createLogger(conf cmdConfig) *slog.Logger {
	var level slog.Level
	switch conf.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var zerologLogger zerolog.Logger
	if conf.Format == "json" {
		zerologLogger = zerolog.New(os.Stderr)
	} else {
		zerologLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	handler := slogzerolog.Option{
		Level:  level,
		Logger: &zerologLogger,
	}.NewZerologHandler()

	logger := slog.New(handler)

	log.SetFlags(0)
	slog.SetDefault(logger)

	return logger
}

// loadLogger reads the logging config from the environment and builds the
// process logger.
func loadLogger() (*slog.Logger, error) {
	var conf cmdConfig
	if err := cleanenv.ReadEnv(&conf); err != nil {
		return nil, fmt.Errorf("load logging config: %w", err)
	}
	return createLogger(conf), nil
}

// version is overridden at build time via -ldflags "-X ...cmd.version=".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "fileprep",
	Version: version,
	Short:   "Normalize files for upload to size- and format-constrained destinations",
	Long: `fileprep converts arbitrary input files into payloads that satisfy a
downstream API's format and size constraints: PDF text extraction with OCR
fallback, image OCR, CSV summarization, media metadata stubs, and
text-to-PDF synthesis, with destination-aware routing.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
