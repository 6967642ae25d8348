package caption

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecode(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("[00:01.50]Hello|你好")
	if err != nil {
		t.Fatalf("failed to encode GBK fixture: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain utf8", []byte("[ti:你好]"), "[ti:你好]"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("[ti:x]")...), "[ti:x]"},
		{"gbk", []byte(gbk), "[00:01.50]Hello|你好"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.lrc")
	if err := os.WriteFile(path, []byte(lessonLRC), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open caption file: %v", err)
	}
	if idx.Len() != 4 {
		t.Errorf("expected 4 segments, got %d", idx.Len())
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.lrc")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLRCWriterRoundTrip(t *testing.T) {
	idx := ParseIndex(lessonLRC)
	writer, err := NewWriter(FormatLRC)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	var buf bytes.Buffer
	if err := writer.Encode(&buf, NewDocument(idx)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	again := ParseIndex(buf.String())
	if again.Metadata() != idx.Metadata() {
		t.Errorf("metadata changed: %+v -> %+v", idx.Metadata(), again.Metadata())
	}
	if again.Len() != idx.Len() {
		t.Fatalf("expected %d segments, got %d", idx.Len(), again.Len())
	}
	for i := 0; i < idx.Len(); i++ {
		a, _ := idx.Get(i)
		b, _ := again.Get(i)
		if a.Primary != b.Primary || a.Secondary != b.Secondary ||
			!almostEqual(a.Start, b.Start) || !almostEqual(a.End, b.End) {
			t.Errorf("segment %d changed: %+v -> %+v", i, a, b)
		}
	}
}

func TestSRTWriterClosesOpenEnd(t *testing.T) {
	doc := &Document{
		Segments: []Segment{
			{Primary: "Excuse me!", Secondary: "对不起！", Start: 3, End: 6},
			{Primary: "Yes?", Start: 6, End: 0},
		},
		Duration: 8 * time.Second,
	}

	var buf bytes.Buffer
	if err := (&SRTWriter{}).Encode(&buf, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "00:00:03,000 --> 00:00:06,000\nExcuse me!\n对不起！\n") {
		t.Errorf("missing bilingual first entry in:\n%s", out)
	}
	if !strings.Contains(out, "00:00:06,000 --> 00:00:08,000\nYes?\n") {
		t.Errorf("open end not closed at track length in:\n%s", out)
	}

	doc.Duration = 0
	buf.Reset()
	if err := (&SRTWriter{}).Encode(&buf, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(buf.String(), "00:00:06,000 --> 00:00:11,000") {
		t.Errorf("open end not closed with default tail in:\n%s", buf.String())
	}
}

func TestVTTAndASSWriters(t *testing.T) {
	doc := &Document{
		Segments: []Segment{{Primary: "Hi", Secondary: "嗨", Start: -0.3, End: 1.5}},
		Metadata: Metadata{Title: "Lesson"},
	}
	dir := t.TempDir()

	for _, format := range []Format{FormatVTT, FormatASS} {
		writer, err := NewWriter(format)
		if err != nil {
			t.Fatalf("NewWriter(%s) failed: %v", format, err)
		}
		path := filepath.Join(dir, "out"+GetExtensionForFormat(format))
		if err := writer.Write(doc, path); err != nil {
			t.Fatalf("Write(%s) failed: %v", format, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read %s: %v", path, err)
		}
		out := string(data)

		switch format {
		case FormatVTT:
			if !strings.HasPrefix(out, "WEBVTT\n\n") {
				t.Errorf("missing VTT header in:\n%s", out)
			}
			if !strings.Contains(out, "00:00:00.000 --> 00:00:01.500\nHi\n嗨") {
				t.Errorf("negative start not clamped in:\n%s", out)
			}
		case FormatASS:
			if !strings.Contains(out, "Title: Lesson") {
				t.Errorf("expected caption title in ASS header:\n%s", out)
			}
			if !strings.Contains(out, "Dialogue: 0,0:00:00.00,0:00:01.50,Default,,0,0,0,,Hi\\N嗨") {
				t.Errorf("unexpected ASS dialogue in:\n%s", out)
			}
		}
	}

	if _, err := NewWriter(Format("txt")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatFromExtension(t *testing.T) {
	tests := map[string]Format{
		"a.lrc": FormatLRC,
		"a.SRT": FormatSRT,
		"a.vtt": FormatVTT,
		"a.ssa": FormatASS,
		"a.txt": FormatSRT,
	}
	for path, want := range tests {
		if got := GetFormatFromExtension(path); got != want {
			t.Errorf("GetFormatFromExtension(%q) = %s, want %s", path, got, want)
		}
	}
}
