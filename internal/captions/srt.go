package captions

import (
	"fmt"
	"math"
	"strings"
)

// FormatSRT renders segments as SubRip blocks: a 1-based index, a time range
// with comma-separated milliseconds, the text, and a blank line.
func FormatSRT(segments []Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", formatSRTTime(seg.Start), formatSRTTime(seg.End()))
		fmt.Fprintf(&sb, "%s\n\n", seg.Text)
	}
	return sb.String()
}

// ParseSRT parses SubRip content back into segments. It is the inverse of
// FormatSRT up to millisecond precision.
func ParseSRT(content string) ([]Segment, error) {
	var segments []Segment

	blocks := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}
		start, end, err := parseTimeRange(lines[1], ",")
		if err != nil {
			return nil, fmt.Errorf("parse srt block %q: %w", lines[0], err)
		}
		segments = append(segments, Segment{
			Text:     strings.Join(lines[2:], "\n"),
			Start:    start,
			Duration: end - start,
		})
	}

	return segments, nil
}

func formatSRTTime(seconds float64) string {
	return formatClock(seconds, ",")
}

func formatClock(seconds float64, millisSep string) string {
	millis := int64(math.Round(seconds * 1000))
	h := millis / 3600000
	m := (millis % 3600000) / 60000
	s := (millis % 60000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, millisSep, ms)
}

func parseTimeRange(line, millisSep string) (float64, float64, error) {
	parts := strings.Split(line, " --> ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time range %q", line)
	}
	start, err := parseClock(strings.TrimSpace(parts[0]), millisSep)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(strings.TrimSpace(parts[1]), millisSep)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseClock(value, millisSep string) (float64, error) {
	var h, m, s, ms int
	format := "%02d:%02d:%02d" + millisSep + "%03d"
	if _, err := fmt.Sscanf(value, format, &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", value, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}
