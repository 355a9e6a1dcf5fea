package report

import (
	"strconv"

	"github.com/xtreamctl/xtreamctl/internal/ffprobe"
	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

// Placeholders used when a field has no real value.
const (
	// UnknownCategory labels streams whose category id has no entry in the
	// category catalog.
	UnknownCategory = "Unknown"

	// NotAvailable marks fields that could not be determined.
	NotAvailable = "N/A"
)

// Header is the report column set, in output order.
var Header = []string{
	"Stream ID",
	"Name",
	"Category",
	"Archive",
	"EPG",
	"Video Codec",
	"Resolution",
	"Frame Rate",
	"Audio Codec",
	"Channels",
	"Sample Rate",
}

// Row is one fully assembled report line. Every field is a display string:
// either a real value or an explicit placeholder.
type Row struct {
	StreamID   string
	Name       string
	Category   string
	Archive    string
	EPG        string
	VideoCodec string
	Resolution string
	FrameRate  string
	AudioCodec string
	Channels   string
	SampleRate string
}

// Fields returns the row values in Header order.
func (r Row) Fields() []string {
	return []string{
		r.StreamID,
		r.Name,
		r.Category,
		r.Archive,
		r.EPG,
		r.VideoCodec,
		r.Resolution,
		r.FrameRate,
		r.AudioCodec,
		r.Channels,
		r.SampleRate,
	}
}

// buildRow assembles a Row from a stream, its resolved category name, an
// optional EPG count and an optional probe result. Name and category are
// truncated to the configured display widths; stream id is never truncated.
func buildRow(stream xtream.Stream, categoryName string, epg string, probe *ffprobe.Result, nameWidth, categoryWidth int) Row {
	row := Row{
		StreamID:   strconv.FormatInt(stream.StreamID.Int(), 10),
		Name:       truncate(stream.Name, nameWidth),
		Category:   truncate(categoryName, categoryWidth),
		Archive:    archiveField(stream),
		EPG:        epg,
		VideoCodec: NotAvailable,
		Resolution: NotAvailable,
		FrameRate:  NotAvailable,
		AudioCodec: NotAvailable,
		Channels:   NotAvailable,
		SampleRate: NotAvailable,
	}

	if probe != nil && probe.Status == ffprobe.StatusWorking {
		row.VideoCodec = probe.VideoCodec
		row.Resolution = resolution(probe)
		row.FrameRate = probe.FrameRate
		row.AudioCodec = probe.AudioCodec
		row.Channels = probe.Channels
		row.SampleRate = probe.SampleRate
	}

	return row
}

// resolution renders "WxH", or N/A when either dimension is unknown.
func resolution(probe *ffprobe.Result) string {
	if probe.Width == ffprobe.Placeholder || probe.Height == ffprobe.Placeholder {
		return NotAvailable
	}
	return probe.Width + "x" + probe.Height
}

func archiveField(stream xtream.Stream) string {
	if stream.TVArchiveDuration == "" {
		return NotAvailable
	}
	return stream.TVArchiveDuration.String()
}

// truncate limits s to max runes. Non-positive max disables truncation.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
