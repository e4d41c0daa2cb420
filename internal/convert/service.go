// Package convert implements the file normalization pipeline: a
// multi-strategy converter that takes an arbitrary input file and produces
// a payload guaranteed to satisfy the destination's format and size
// constraints.
package convert

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/openresponses/fileprep/internal/classify"
	"github.com/openresponses/fileprep/internal/ocr"
	"github.com/openresponses/fileprep/internal/storage"
)

// Config holds the collaborators and tunables of the conversion service.
type Config struct {
	FileSystem storage.FileSystem // defaults to the OS filesystem
	Rules      *classify.Ruleset  // defaults to DefaultRuleset
	Engine     ocr.Engine         // defaults to the tesseract CLI engine
	Renderer   PageRenderer       // defaults to the pdftoppm renderer
	Prober     MediaProber        // defaults to the ffprobe prober
	Tunables   Tunables
	Logger     *slog.Logger
}

// Service converts single files. It holds no per-file state: conversions
// are independent and safe to run concurrently from batch workers.
type Service struct {
	fs         storage.FileSystem
	classifier *classify.Classifier
	engine     ocr.Engine
	renderer   PageRenderer
	prober     MediaProber
	tun        Tunables
	logger     *slog.Logger
}

// NewService builds a conversion service, filling unset collaborators with
// production defaults.
func NewService(config Config) *Service {
	if config.FileSystem == nil {
		config.FileSystem = storage.NewOSFileSystem()
	}
	rules := classify.DefaultRuleset()
	if config.Rules != nil {
		rules = *config.Rules
	}
	if config.Engine == nil {
		config.Engine = ocr.NewTesseract()
	}
	if config.Renderer == nil {
		config.Renderer = NewPdftoppmRenderer()
	}
	if config.Prober == nil {
		config.Prober = NewFFProbeProber()
	}
	config.Tunables.defaults()
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		fs:         config.FileSystem,
		classifier: classify.NewClassifier(rules),
		engine:     config.Engine,
		renderer:   config.Renderer,
		prober:     config.Prober,
		tun:        config.Tunables,
		logger:     config.Logger,
	}
}

// Convert validates, classifies and converts one file for the given
// destination. The returned payload never exceeds the size ceiling and its
// format is always in the destination's accepted set.
func (s *Service) Convert(ctx context.Context, path string, dest classify.Destination) (*Result, error) {
	if err := ValidateFile(s.fs, path, s.tun.MaxFileSize); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strategy := s.classifier.Classify(path, dest)
	s.logger.DebugContext(ctx, "strategy selected",
		"file", baseName(path),
		"destination", dest.String(),
		"strategy", strategy.String(),
	)

	var res *Result
	var err error
	switch strategy {
	case classify.StrategyPassthrough:
		res, err = s.passthrough(path)
	case classify.StrategyPDF:
		res, err = s.convertPDF(ctx, path)
	case classify.StrategyImage:
		res, err = s.convertImage(ctx, path)
	case classify.StrategyCSV:
		res, err = s.convertCSV(ctx, path)
	case classify.StrategyAudio:
		res, err = s.convertMedia(ctx, path, false)
	case classify.StrategyVideo:
		res, err = s.convertMedia(ctx, path, true)
	case classify.StrategyBinary:
		res, err = s.convertBinary(path)
	case classify.StrategyTextToPDF:
		res, err = s.convertTextToPDF(path)
	default:
		return nil, &UnsupportedTypeError{Ext: filepath.Ext(path)}
	}
	if err != nil {
		return nil, err
	}

	s.enforceCeiling(res)
	s.noteTokenEstimate(ctx, res)

	s.logger.InfoContext(ctx, "file converted",
		"file", res.OriginalFilename,
		"output", res.Filename,
		"method", res.Method,
		"converted", res.WasConverted,
		"size", len(res.ConvertedData),
	)

	return res, nil
}

// passthrough forwards the original bytes unchanged.
func (s *Service) passthrough(path string) (*Result, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return &Result{
		ConvertedData:    data,
		Filename:         baseName(path),
		OriginalFilename: baseName(path),
		Method:           MethodPassthrough,
		WasConverted:     false,
	}, nil
}

// enforceCeiling is the final size gate. Strategies already compress their
// text output, but the invariant is enforced here, not assumed: whatever a
// strategy produced, the payload leaves at or under the ceiling.
func (s *Service) enforceCeiling(res *Result) {
	if int64(len(res.ConvertedData)) <= s.tun.MaxFileSize {
		return
	}
	s.logger.Warn("payload exceeded ceiling after conversion; compressing",
		"file", res.OriginalFilename,
		"size", len(res.ConvertedData),
	)
	compressed := Compress(string(res.ConvertedData), int(s.tun.MaxFileSize), s.tun.CompressHeadTailLines)
	res.ConvertedData = []byte(compressed)
}

// noteTokenEstimate logs when a payload likely exceeds the destination's
// documented token ceiling. Informational only; the limit is not enforced.
func (s *Service) noteTokenEstimate(ctx context.Context, res *Result) {
	estimate := int64(len(res.ConvertedData)) / 4
	if estimate > TokenCeiling {
		s.logger.WarnContext(ctx, "payload likely exceeds destination token ceiling",
			"file", res.Filename,
			"estimated_tokens", estimate,
			"ceiling", int64(TokenCeiling),
		)
	}
}
