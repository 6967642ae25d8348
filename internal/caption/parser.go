package caption

import (
	"regexp"
	"strconv"
	"strings"
)

// captions fire this many seconds before their timestamp so the highlight
// leads the voice slightly
const DefaultOffset = 0.5

var (
	lineRegex = regexp.MustCompile(`\[(\d+):(\d+(?:\.\d+)?)\](.*)`)

	albumRegex  = regexp.MustCompile(`\[al:(.*)\]`)
	artistRegex = regexp.MustCompile(`\[ar:(.*)\]`)
	titleRegex  = regexp.MustCompile(`\[ti:(.*)\]`)

	newlineRegex = regexp.MustCompile(`\r?\n`)
)

// turns timestamped caption text into ordered segments
type Parser struct {
	// subtracted from every timestamp
	Offset float64
}

func NewParser() *Parser {
	return &Parser{Offset: DefaultOffset}
}

// parses raw caption text with the default offset
func Parse(raw string) ([]Segment, Metadata) {
	return NewParser().Parse(raw)
}

// Parse never fails: lines that are neither timestamped captions nor
// metadata tags are dropped. Segments keep source order, and each End is
// the start of the next timestamped line in the source, or 0 for the last.
func (p *Parser) Parse(raw string) ([]Segment, Metadata) {
	var meta Metadata
	lines := splitLines(raw)

	// resolve every timestamp first so End lookups are a forward scan over
	// already computed values
	starts := make([]float64, len(lines))
	timed := make([]bool, len(lines))
	for i, line := range lines {
		if start, ok := p.timestamp(line); ok {
			starts[i] = start
			timed[i] = true
		}
	}

	segments := make([]Segment, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		matches := lineRegex.FindStringSubmatch(line)
		if matches == nil {
			parseInfo(line, &meta)
			continue
		}

		primary, secondary := splitText(matches[3])

		var end float64
		for j := i + 1; j < len(lines); j++ {
			if timed[j] {
				end = starts[j]
				break
			}
		}

		segments = append(segments, Segment{
			Primary:   primary,
			Secondary: secondary,
			Start:     starts[i],
			End:       end,
		})
	}

	return segments, meta
}

// computed start of a timestamped line, minus the offset
func (p *Parser) timestamp(line string) (float64, bool) {
	matches := lineRegex.FindStringSubmatch(line)
	if matches == nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return 0, false
	}
	return float64(minutes)*60 + seconds - p.Offset, true
}

func splitLines(raw string) []string {
	var lines []string
	for _, line := range newlineRegex.Split(raw, -1) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// text before the first '|' is primary, text up to the next '|' secondary
func splitText(text string) (string, string) {
	parts := strings.Split(text, "|")
	primary := strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return primary, ""
	}
	return primary, strings.TrimSpace(parts[1])
}

// last matching tag wins
func parseInfo(line string, meta *Metadata) {
	if m := albumRegex.FindStringSubmatch(line); m != nil {
		meta.Album = m[1]
	}
	if m := artistRegex.FindStringSubmatch(line); m != nil {
		meta.Artist = m[1]
	}
	if m := titleRegex.FindStringSubmatch(line); m != nil {
		meta.Title = m[1]
	}
}
