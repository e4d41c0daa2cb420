package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// MediaInfo is the probed metadata of an audio or video container.
type MediaInfo struct {
	FormatName      string
	DurationSeconds float64
	AudioTracks     int
	VideoTracks     int
}

// MediaProber extracts container metadata without decoding content.
type MediaProber interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
	Available() bool
}

// ffprobeProber shells out to ffprobe with JSON output. Content is never
// decoded; only format and stream headers are read.
type ffprobeProber struct {
	binary string

	availableOnce sync.Once
	available     bool
}

// NewFFProbeProber returns a prober using the ffprobe binary on PATH.
func NewFFProbeProber() MediaProber {
	return &ffprobeProber{binary: "ffprobe"}
}

func (p *ffprobeProber) Available() bool {
	p.availableOnce.Do(func() {
		err := exec.Command(p.binary, "-version").Run()
		p.available = err == nil
	})
	return p.available
}

// ffprobeOutput mirrors the subset of ffprobe's JSON we consume.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

func (p *ffprobeProber) Probe(ctx context.Context, path string) (MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return MediaInfo{}, ctx.Err()
		}
		return MediaInfo{}, fmt.Errorf("ffprobe: %w", err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe output: %w", err)
	}

	info := MediaInfo{FormatName: out.Format.FormatName}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.DurationSeconds = d
	}
	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "audio":
			info.AudioTracks++
		case "video":
			info.VideoTracks++
		}
	}
	return info, nil
}

// convertMedia produces a metadata-only stub for audio and video files.
// Transcription and frame analysis are deliberately out of scope: the stub
// points the user at external tooling instead.
func (s *Service) convertMedia(ctx context.Context, path string, video bool) (*Result, error) {
	tag, method := "AudioInfo", MethodAudioMetadata
	if video {
		tag, method = "VideoInfo", MethodVideoMetadata
	}

	var probed *MediaInfo
	if s.prober.Available() {
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}

		// Stage bytes on the OS filesystem for the prober; removal is
		// guaranteed on every exit path.
		tmp := filepath.Join(os.TempDir(), "fileprep_media_"+uuid.NewString()+filepath.Ext(path))
		if err := os.WriteFile(tmp, data, 0600); err == nil {
			defer os.Remove(tmp)
			if info, perr := s.prober.Probe(ctx, tmp); perr == nil {
				probed = &info
			} else if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}

	info, _ := s.fs.Stat(path)

	var b strings.Builder
	if video {
		b.WriteString("=== VIDEO FILE METADATA ===\n")
	} else {
		b.WriteString("=== AUDIO FILE METADATA ===\n")
	}
	fmt.Fprintf(&b, "File: %s\n", baseName(path))
	fmt.Fprintf(&b, "Container: %s\n", strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if info != nil {
		fmt.Fprintf(&b, "Size: %s\n", humanize.IBytes(uint64(info.Size())))
	}
	if probed != nil {
		fmt.Fprintf(&b, "Format: %s\n", probed.FormatName)
		fmt.Fprintf(&b, "Duration: %s\n", formatDuration(probed.DurationSeconds))
		fmt.Fprintf(&b, "Audio tracks: %d\n", probed.AudioTracks)
		if video {
			fmt.Fprintf(&b, "Video tracks: %d\n", probed.VideoTracks)
		}
	} else {
		b.WriteString("Duration: unavailable (no media prober on this host)\n")
	}
	b.WriteString("Content analysis is not performed by this pipeline.\n")
	if video {
		b.WriteString("Recommendation: extract key frames and run the audio track through a transcription service, then upload the results.\n")
	} else {
		b.WriteString("Recommendation: run this file through a transcription service and upload the transcript.\n")
	}

	return &Result{
		ConvertedData:    []byte(b.String()),
		Filename:         convertedName(path, tag, ".txt"),
		OriginalFilename: baseName(path),
		Method:           method,
		WasConverted:     true,
	}, nil
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
