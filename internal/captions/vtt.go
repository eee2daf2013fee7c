package captions

import (
	"fmt"
	"strings"
)

const vttHeader = "WEBVTT"

// FormatVTT renders segments as WebVTT: a header line followed by cue blocks
// with dot-separated milliseconds.
func FormatVTT(segments []Segment) string {
	var sb strings.Builder
	sb.WriteString(vttHeader + "\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&sb, "%s --> %s\n", formatVTTTime(seg.Start), formatVTTTime(seg.End()))
		fmt.Fprintf(&sb, "%s\n\n", seg.Text)
	}
	return sb.String()
}

// ParseVTT parses WebVTT content back into segments.
func ParseVTT(content string) ([]Segment, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, vttHeader) {
		return nil, fmt.Errorf("missing %s header", vttHeader)
	}

	var segments []Segment
	blocks := strings.Split(content, "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timeLine := -1
		for i, line := range lines {
			if strings.Contains(line, " --> ") {
				timeLine = i
				break
			}
		}
		if timeLine < 0 || timeLine+1 >= len(lines) {
			continue
		}
		start, end, err := parseTimeRange(lines[timeLine], ".")
		if err != nil {
			return nil, fmt.Errorf("parse vtt cue: %w", err)
		}
		segments = append(segments, Segment{
			Text:     strings.Join(lines[timeLine+1:], "\n"),
			Start:    start,
			Duration: end - start,
		})
	}

	return segments, nil
}

func formatVTTTime(seconds float64) string {
	return formatClock(seconds, ".")
}
