package report

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Fixed console column widths. Name and category widths are configurable
// and passed per call; the rest mirror the header layout.
const (
	colID         = 10
	colArchive    = 8
	colEPG        = 5
	colVideoCodec = 12
	colResolution = 15
	colFrameRate  = 10
	colAudioCodec = 12
	colChannels   = 10
	colSampleRate = 12
)

// WriteTable renders rows as a fixed-width console table.
func WriteTable(w io.Writer, rows []Row, nameWidth, categoryWidth int) {
	if nameWidth <= 0 {
		nameWidth = 60
	}
	if categoryWidth <= 0 {
		categoryWidth = 40
	}

	fmt.Fprintf(w, "%-*s%-*s %-*s%-*s%-*s%-*s%-*s%-*s%-*s%-*s%-*s\n",
		colID, "ID",
		nameWidth, "Name",
		categoryWidth, "Category",
		colArchive, "Archive",
		colEPG, "EPG",
		colVideoCodec, "Video Codec",
		colResolution, "Resolution",
		colFrameRate, "Frame",
		colAudioCodec, "Audio Codec",
		colChannels, "Channels",
		colSampleRate, "Sample Rate",
	)
	fmt.Fprintln(w, strings.Repeat("=", 180))

	for _, r := range rows {
		fmt.Fprintf(w, "%-*s%-*s %-*s%-*s%-*s%-*s%-*s%-*s%-*s%-*s%-*s\n",
			colID, r.StreamID,
			nameWidth, r.Name,
			categoryWidth, r.Category,
			colArchive, r.Archive,
			colEPG, r.EPG,
			colVideoCodec, r.VideoCodec,
			colResolution, r.Resolution,
			colFrameRate, r.FrameRate,
			colAudioCodec, r.AudioCodec,
			colChannels, r.Channels,
			colSampleRate, r.SampleRate,
		)
	}
}

// WriteCSV writes the report to path with a header line and every field
// double-quoted. encoding/csv only quotes when forced to, so the quoting
// is done by hand here.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}

	if err := writeCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing CSV file: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, rows []Row) error {
	if err := writeCSVRecord(w, Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeCSVRecord(w, r.Fields()); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVRecord(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing CSV record: %w", err)
	}
	return nil
}
