package captions

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

const (
	// segmentGap is the fixed pause inserted between consecutive segments.
	segmentGap = 0.5

	defaultWordsPerMinute = 150.0
)

// readingSpeeds maps a lowercase language name to words per minute spoken
// at a natural narration pace. Unknown languages fall back to English.
var readingSpeeds = map[string]float64{
	"english":    150,
	"spanish":    160,
	"french":     160,
	"german":     130,
	"italian":    155,
	"portuguese": 155,
	"dutch":      140,
	"russian":    135,
	"polish":     135,
	"japanese":   120,
	"korean":     125,
	"mandarin":   125,
	"chinese":    125,
	"hindi":      145,
	"arabic":     130,
	"turkish":    140,
}

// Segment is a single timed caption.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// End returns the segment's end offset in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Word is the word-level derived view over a sentence segment.
type Word struct {
	Text     string
	Start    float64
	Duration float64
}

// Synthesizer converts a script and a duration budget into timed segments.
type Synthesizer struct {
	gap float64
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{gap: segmentGap}
}

// Synthesize splits script into sentences and assigns each a time span
// estimated from the language's reading speed. A sentence whose span would
// exceed totalDuration is emitted as a final partial segment covering exactly
// the remaining time, or dropped when no time remains. No segment's end ever
// exceeds totalDuration.
func (s *Synthesizer) Synthesize(script string, totalDuration float64, language string) []Segment {
	sentences := SplitSentences(script)
	if len(sentences) == 0 || totalDuration <= 0 {
		return nil
	}

	wpm := ReadingSpeed(resolveLanguage(language, script))

	var segments []Segment
	cursor := 0.0
	for _, sentence := range sentences {
		if cursor >= totalDuration {
			break
		}
		words := len(strings.Fields(sentence))
		estimated := float64(words) / wpm * 60.0
		if estimated <= 0 {
			continue
		}

		duration := estimated
		if cursor+estimated > totalDuration {
			duration = totalDuration - cursor
		}
		segments = append(segments, Segment{Text: sentence, Start: cursor, Duration: duration})
		if duration < estimated {
			break
		}
		cursor += estimated + s.gap
	}

	return segments
}

// Words redistributes each segment's duration evenly across its words.
// Re-aggregating the result reproduces the original segment boundaries.
func Words(segments []Segment) []Word {
	var words []Word
	for _, seg := range segments {
		fields := strings.Fields(seg.Text)
		if len(fields) == 0 {
			continue
		}
		per := seg.Duration / float64(len(fields))
		for i, field := range fields {
			words = append(words, Word{
				Text:     field,
				Start:    seg.Start + float64(i)*per,
				Duration: per,
			})
		}
	}
	return words
}

// ReadingSpeed returns the words-per-minute pace for a language name.
func ReadingSpeed(language string) float64 {
	if wpm, ok := readingSpeeds[strings.ToLower(strings.TrimSpace(language))]; ok {
		return wpm
	}
	return defaultWordsPerMinute
}

// SplitSentences breaks a script into sentence-level units on terminal
// punctuation, keeping the punctuation attached.
func SplitSentences(script string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for _, r := range script {
		current.WriteRune(r)
		switch r {
		case '.', '!', '?':
			flush()
		}
	}
	flush()

	return sentences
}

func resolveLanguage(language, script string) string {
	if language != "" {
		return language
	}
	info := whatlanggo.Detect(script)
	return strings.ToLower(info.Lang.String())
}
