package convert

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// MaxPayloadBytes is the destination API's hard per-file ceiling (512 MiB).
const MaxPayloadBytes = 512 * 1024 * 1024

// TokenCeiling is the destination's documented per-file token limit. It is
// estimated and logged, never enforced as a hard gate.
const TokenCeiling = 5_000_000

// Tunables are the empirically chosen knobs of the pipeline. The defaults
// match the destination API's contract; the boundaries are workload
// dependent and deliberately configurable rather than hard-coded.
type Tunables struct {
	// MaxFileSize is the hard input/output size ceiling in bytes.
	MaxFileSize int64 `env:"FILEPREP_MAX_FILE_SIZE" env-default:"536870912" env-description:"Hard per-file size ceiling in bytes"`

	// OCRPageLimit caps how many pages of a scanned PDF are OCR'd. Beyond
	// this the marginal cost outweighs the benefit for typical documents.
	OCRPageLimit int `env:"FILEPREP_OCR_PAGE_LIMIT" env-default:"50" env-description:"Maximum PDF pages to OCR"`

	// CompressHeadTailLines is the head/tail line count the compression
	// gate keeps for oversized extracted text.
	CompressHeadTailLines int `env:"FILEPREP_COMPRESS_LINES" env-default:"25000" env-description:"Head/tail lines kept when compressing oversized text"`

	// CSV tier boundaries (bytes / rows) and per-tier sample sizes.
	CSVFullMaxBytes   int64 `env:"FILEPREP_CSV_FULL_MAX_BYTES" env-default:"1048576" env-description:"CSV size below which the file is kept verbatim"`
	CSVFullMaxRows    int   `env:"FILEPREP_CSV_FULL_MAX_ROWS" env-default:"1000" env-description:"CSV row count below which the file is kept verbatim"`
	CSVMediumMaxBytes int64 `env:"FILEPREP_CSV_MEDIUM_MAX_BYTES" env-default:"10485760" env-description:"CSV size boundary for the 500+500 head/tail tier"`
	CSVMediumMaxRows  int   `env:"FILEPREP_CSV_MEDIUM_MAX_ROWS" env-default:"10000" env-description:"CSV row boundary for the 500+500 head/tail tier"`
	CSVLargeMaxBytes  int64 `env:"FILEPREP_CSV_LARGE_MAX_BYTES" env-default:"52428800" env-description:"CSV size boundary for the 1000+1000 head/tail tier"`
	CSVLargeMaxRows   int   `env:"FILEPREP_CSV_LARGE_MAX_ROWS" env-default:"50000" env-description:"CSV row boundary for the 1000+1000 head/tail tier"`

	// Per-tier head/tail row counts, tunable alongside the tier boundaries.
	CSVMediumSampleRows int `env:"FILEPREP_CSV_MEDIUM_SAMPLE_ROWS" env-default:"500" env-description:"Head/tail rows kept in the medium CSV tier"`
	CSVLargeSampleRows  int `env:"FILEPREP_CSV_LARGE_SAMPLE_ROWS" env-default:"1000" env-description:"Head/tail rows kept in the large CSV tier"`

	CSVSampleSize int `env:"FILEPREP_CSV_SAMPLE_SIZE" env-default:"2000" env-description:"Stratified sample size for the ML summary tier"`
}

// defaults normalizes zero values so a Tunables literal in tests behaves
// like the loaded configuration.
func (t *Tunables) defaults() {
	if t.MaxFileSize <= 0 {
		t.MaxFileSize = MaxPayloadBytes
	}
	if t.OCRPageLimit <= 0 {
		t.OCRPageLimit = 50
	}
	if t.CompressHeadTailLines <= 0 {
		t.CompressHeadTailLines = 25000
	}
	if t.CSVFullMaxBytes <= 0 {
		t.CSVFullMaxBytes = 1 << 20
	}
	if t.CSVFullMaxRows <= 0 {
		t.CSVFullMaxRows = 1000
	}
	if t.CSVMediumMaxBytes <= 0 {
		t.CSVMediumMaxBytes = 10 << 20
	}
	if t.CSVMediumMaxRows <= 0 {
		t.CSVMediumMaxRows = 10000
	}
	if t.CSVLargeMaxBytes <= 0 {
		t.CSVLargeMaxBytes = 50 << 20
	}
	if t.CSVLargeMaxRows <= 0 {
		t.CSVLargeMaxRows = 50000
	}
	if t.CSVMediumSampleRows <= 0 {
		t.CSVMediumSampleRows = 500
	}
	if t.CSVLargeSampleRows <= 0 {
		t.CSVLargeSampleRows = 1000
	}
	if t.CSVSampleSize <= 0 {
		t.CSVSampleSize = 2000
	}
}

// LoadTunables reads tunables from environment variables.
func LoadTunables() (Tunables, error) {
	var t Tunables
	if err := cleanenv.ReadEnv(&t); err != nil {
		return t, err
	}
	t.defaults()
	return t, nil
}
