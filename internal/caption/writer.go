package caption

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// used to close an open-ended last segment when the track length is unknown
const DefaultTail = 5 * time.Second

// what a writer serialises: segments, tags and, if known, the track length
type Document struct {
	Segments []Segment
	Metadata Metadata
	Duration time.Duration
}

func NewDocument(index *Index) *Document {
	return &Document{
		Segments: index.Segments(),
		Metadata: index.Metadata(),
	}
}

// effective end of segment i; open ends close at the track length
func (d *Document) endOf(i int) time.Duration {
	seg := d.Segments[i]
	start := Seconds(seg.Start)
	if !seg.OpenEnded() {
		return Seconds(seg.End)
	}
	if d.Duration > start {
		return d.Duration
	}
	return start + DefaultTail
}

// interface for writing captions
type Writer interface {
	Encode(w io.Writer, doc *Document) error
	Write(doc *Document, path string) error
}

// timestamped caption format read by Parse
type LRCWriter struct {
	// added back to every start so a re-parse yields the same values
	Offset float64
}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatLRC:
		return &LRCWriter{Offset: DefaultOffset}, nil
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "Lesson Captions",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (w *LRCWriter) Encode(out io.Writer, doc *Document) error {
	bw := bufio.NewWriter(out)

	tags := []struct{ key, value string }{
		{"ti", doc.Metadata.Title},
		{"ar", doc.Metadata.Artist},
		{"al", doc.Metadata.Album},
	}
	for _, tag := range tags {
		if tag.value != "" {
			fmt.Fprintf(bw, "[%s:%s]\n", tag.key, tag.value)
		}
	}

	for _, seg := range doc.Segments {
		bw.WriteString(formatLRCTime(seg.Start + w.Offset))
		bw.WriteString(seg.Primary)
		if seg.Secondary != "" {
			bw.WriteString(" | ")
			bw.WriteString(seg.Secondary)
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

func (w *LRCWriter) Write(doc *Document, path string) error {
	return writeFile(path, func(out io.Writer) error {
		return w.Encode(out, doc)
	})
}

func (w *SRTWriter) Encode(out io.Writer, doc *Document) error {
	bw := bufio.NewWriter(out)
	for i, seg := range doc.Segments {
		// index (1-based)
		fmt.Fprintf(bw, "%d\n", i+1)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatSRTTime(Seconds(seg.Start)),
			formatSRTTime(doc.endOf(i)))

		bw.WriteString(bilingualText(seg))
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

func (w *SRTWriter) Write(doc *Document, path string) error {
	return writeFile(path, func(out io.Writer) error {
		return w.Encode(out, doc)
	})
}

func (w *VTTWriter) Encode(out io.Writer, doc *Document) error {
	bw := bufio.NewWriter(out)
	bw.WriteString("WEBVTT\n\n")

	for i, seg := range doc.Segments {
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n",
			formatVTTTime(Seconds(seg.Start)),
			formatVTTTime(doc.endOf(i)))
		bw.WriteString(bilingualText(seg))
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

func (w *VTTWriter) Write(doc *Document, path string) error {
	return writeFile(path, func(out io.Writer) error {
		return w.Encode(out, doc)
	})
}

func (w *ASSWriter) Encode(out io.Writer, doc *Document) error {
	bw := bufio.NewWriter(out)

	title := w.Title
	if doc.Metadata.Title != "" {
		title = doc.Metadata.Title
	}

	// script info section
	bw.WriteString("[Script Info]\n")
	fmt.Fprintf(bw, "Title: %s\n", title)
	bw.WriteString("ScriptType: v4.00+\n")
	bw.WriteString("Collisions: Normal\n")
	bw.WriteString("PlayDepth: 0\n\n")

	// v4+ styles section
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	// events section
	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for i, seg := range doc.Segments {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(Seconds(seg.Start)),
			formatASSTime(doc.endOf(i)),
			strings.ReplaceAll(bilingualText(seg), "\n", "\\N"))
	}

	return bw.Flush()
}

func (w *ASSWriter) Write(doc *Document, path string) error {
	return writeFile(path, func(out io.Writer) error {
		return w.Encode(out, doc)
	})
}

func bilingualText(seg Segment) string {
	if seg.Secondary == "" {
		return seg.Primary
	}
	return seg.Primary + "\n" + seg.Secondary
}

func formatLRCTime(seconds float64) string {
	centis := int(math.Round(seconds * 100))
	if centis < 0 {
		centis = 0
	}
	return fmt.Sprintf("[%02d:%02d.%02d]",
		centis/6000,
		(centis%6000)/100,
		centis%100)
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func formatASSTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

func writeFile(path string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// caption format based on file extension
func GetFormatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lrc":
		return FormatLRC
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	default:
		return FormatSRT
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatLRC:
		return ".lrc"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}
