package ffprobe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFrameRate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"30000/1001", "30"},
		{"25/1", "25"},
		{"50/2", "25"},
		{"25/0", "?"},
		{"0/0", "?"},
		{"25", "25"},
		{"23.976", "23.976"},
		{"", "?"},
		{"abc/def", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFrameRate(tt.input))
		})
	}
}

func parseStreams(t *testing.T, raw string) []probeStream {
	t.Helper()
	var out probeOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out.Streams
}

func TestResultFromStreams_VideoAndAudio(t *testing.T) {
	streams := parseStreams(t, `{"streams": [
		{"codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "25/1"},
		{"codec_name": "aac", "channels": 2, "sample_rate": "48000"}
	]}`)

	r := resultFromStreams(streams)
	assert.Equal(t, StatusWorking, r.Status)
	assert.Equal(t, "h264", r.VideoCodec)
	assert.Equal(t, "1920", r.Width)
	assert.Equal(t, "1080", r.Height)
	assert.Equal(t, "25", r.FrameRate)
	assert.Equal(t, "aac", r.AudioCodec)
	assert.Equal(t, "2", r.Channels)
	assert.Equal(t, "48000", r.SampleRate)
}

func TestResultFromStreams_VideoOnly(t *testing.T) {
	streams := parseStreams(t, `{"streams": [
		{"codec_name": "hevc", "width": 1280, "height": 720, "avg_frame_rate": "50/1"}
	]}`)

	r := resultFromStreams(streams)
	assert.Equal(t, StatusWorking, r.Status)
	assert.Equal(t, "hevc", r.VideoCodec)
	assert.Equal(t, Placeholder, r.AudioCodec)
	assert.Equal(t, Placeholder, r.Channels)
	assert.Equal(t, Placeholder, r.SampleRate)
}

func TestResultFromStreams_NoStreams(t *testing.T) {
	r := resultFromStreams(nil)
	assert.Equal(t, StatusNotWorking, r.Status)
	assert.Empty(t, r.ErrorMessage)
}

func TestResultFromStreams_MissingFields(t *testing.T) {
	streams := parseStreams(t, `{"streams": [{"codec_name": "mp2"}]}`)

	r := resultFromStreams(streams)
	assert.Equal(t, StatusWorking, r.Status)
	assert.Equal(t, "mp2", r.VideoCodec)
	assert.Equal(t, Placeholder, r.Width)
	assert.Equal(t, Placeholder, r.Height)
	assert.Equal(t, Placeholder, r.FrameRate)
}

func TestNewProber_ExplicitPathSkipsDiscovery(t *testing.T) {
	p, err := NewProber("/opt/ffmpeg/bin/ffprobe", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", p.binaryPath)
	assert.Equal(t, DefaultTimeout, p.timeout)
}
