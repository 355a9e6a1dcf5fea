// Package ffprobe inspects stream URLs with the external ffprobe binary.
//
// The prober asks ffprobe for a minimal per-stream entry set and maps the
// output into display-ready string fields. Probe never returns an error:
// every failure collapses into a Result carrying an error status, so one
// dead stream cannot abort a report run.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/xtreamctl/xtreamctl/internal/util"
)

const (
	// BinaryName is the ffprobe executable name.
	BinaryName = "ffprobe"

	// EnvBinaryPath overrides binary discovery.
	EnvBinaryPath = "XTREAMCTL_FFPROBE_BINARY"

	// DefaultTimeout bounds a single probe invocation.
	DefaultTimeout = 30 * time.Second

	// Placeholder marks a field ffprobe did not report.
	Placeholder = "?"
)

// Status classifies a probe outcome.
type Status string

const (
	// StatusWorking means ffprobe reported at least one stream.
	StatusWorking Status = "working"
	// StatusNotWorking means ffprobe ran cleanly but found no streams.
	StatusNotWorking Status = "not_working"
	// StatusError means the probe process failed or produced unusable output.
	StatusError Status = "error"
)

// Result holds the probe outcome for one stream URL. Every display field is
// a string so missing values can carry an explicit placeholder.
type Result struct {
	Status       Status
	VideoCodec   string
	Width        string
	Height       string
	FrameRate    string
	AudioCodec   string
	Channels     string
	SampleRate   string
	ErrorMessage string
}

// probeOutput is the subset of ffprobe JSON output the prober requests.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Channels     int    `json:"channels"`
	SampleRate   string `json:"sample_rate"`
}

// Prober runs ffprobe against stream URLs.
type Prober struct {
	binaryPath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewProber creates a Prober using the given binary path. An empty path
// triggers discovery: env override, ./ffprobe, then PATH.
func NewProber(binaryPath string, timeout time.Duration, logger *slog.Logger) (*Prober, error) {
	if binaryPath == "" {
		found, err := util.FindBinary(BinaryName, EnvBinaryPath)
		if err != nil {
			return nil, fmt.Errorf("locating ffprobe: %w", err)
		}
		binaryPath = found
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		binaryPath: binaryPath,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Preflight verifies the binary actually runs by invoking `ffprobe -version`.
// Called once before a probing run so a missing tool fails fast, before any
// network traffic.
func (p *Prober) Preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binaryPath, "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("ffprobe preflight (%s -version): %w", p.binaryPath, err)
	}

	line := output
	if i := bytes.IndexByte(output, '\n'); i >= 0 {
		line = output[:i]
	}
	p.logger.Debug("ffprobe preflight ok",
		slog.String("binary", p.binaryPath),
		slog.String("version", strings.TrimSpace(string(line))),
	)
	return nil
}

// Probe inspects the stream at url. It never returns an error: process
// faults and malformed output yield StatusError, a clean run with no
// streams yields StatusNotWorking.
func (p *Prober) Probe(ctx context.Context, url string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "stream=codec_name,width,height,avg_frame_rate,channels,sample_rate",
		"-of", "json",
		url,
	}

	cmd := exec.CommandContext(ctx, p.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		if ctx.Err() == context.DeadlineExceeded {
			msg = fmt.Sprintf("probe timeout after %v", p.timeout)
		}
		p.logger.Debug("probe failed",
			slog.String("url", url),
			slog.String("error", msg),
		)
		return Result{Status: StatusError, ErrorMessage: msg}
	}

	var parsed probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return Result{
			Status:       StatusError,
			ErrorMessage: fmt.Sprintf("parsing ffprobe output: %v", err),
		}
	}

	return resultFromStreams(parsed.Streams)
}

// resultFromStreams maps ffprobe's stream list onto a Result. The first
// reported stream is treated as video, the second (when present) as audio.
func resultFromStreams(streams []probeStream) Result {
	if len(streams) == 0 {
		return Result{Status: StatusNotWorking}
	}

	video := streams[0]
	r := Result{
		Status:     StatusWorking,
		VideoCodec: orPlaceholder(video.CodecName),
		Width:      intField(video.Width),
		Height:     intField(video.Height),
		FrameRate:  FormatFrameRate(video.AvgFrameRate),
		AudioCodec: Placeholder,
		Channels:   Placeholder,
		SampleRate: Placeholder,
	}

	if len(streams) > 1 {
		audio := streams[1]
		r.AudioCodec = orPlaceholder(audio.CodecName)
		r.Channels = intField(audio.Channels)
		if audio.SampleRate != "" {
			r.SampleRate = audio.SampleRate
		}
	}

	return r
}

// FormatFrameRate converts an ffprobe rational frame rate into a display
// value. "N/D" becomes the rounded quotient; a zero denominator becomes the
// placeholder; a value without a slash passes through verbatim.
func FormatFrameRate(raw string) string {
	if raw == "" {
		return Placeholder
	}
	num, den, ok := strings.Cut(raw, "/")
	if !ok {
		return raw
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return Placeholder
	}
	return strconv.Itoa(int(math.Round(n / d)))
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func intField(v int) string {
	if v == 0 {
		return Placeholder
	}
	return strconv.Itoa(v)
}
