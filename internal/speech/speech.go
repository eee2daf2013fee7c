package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
)

const (
	DefaultVoice  = "narrator"
	DefaultSpeed  = 1.0
	DefaultFormat = "mp3"

	// mp3Bitrate is used to estimate a duration when the provider does not
	// report one.
	mp3Bitrate = 128000.0
)

// ErrInvalidInput indicates a missing or malformed synthesis request field.
// It is never retried and surfaces immediately to the caller.
var ErrInvalidInput = errors.New("invalid synthesis input")

// ErrSynthesisUnavailable indicates the external text-to-speech provider is
// unreachable or returned an error status. Fatal to the pipeline run.
var ErrSynthesisUnavailable = errors.New("speech synthesis unavailable")

// Request describes one synthesis call. Zero-valued optional fields take the
// package defaults.
type Request struct {
	Text     string
	Language string
	Voice    string
	Speed    float64
	Format   string
}

func (r Request) withDefaults() Request {
	if r.Voice == "" {
		r.Voice = DefaultVoice
	}
	if r.Speed == 0 {
		r.Speed = DefaultSpeed
	}
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	return r
}

// Provider produces raw audio for a synthesis request.
type Provider interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// EstimateDuration approximates the play length of encoded audio. WAV data
// carries its byte rate in the header, so the duration is exact; anything
// else falls back to the byte size at a nominal mp3 bitrate.
func EstimateDuration(audio []byte) float64 {
	if dur, ok := wavDuration(audio); ok {
		return dur
	}
	return float64(len(audio)*8) / mp3Bitrate
}

// wavDuration reads the byte rate and data chunk size out of a canonical
// RIFF/WAVE header.
func wavDuration(audio []byte) (float64, bool) {
	if len(audio) < wavHeaderSize ||
		!bytes.Equal(audio[0:4], []byte("RIFF")) ||
		!bytes.Equal(audio[8:12], []byte("WAVE")) ||
		!bytes.Equal(audio[36:40], []byte("data")) {
		return 0, false
	}
	byteRate := binary.LittleEndian.Uint32(audio[28:32])
	dataSize := binary.LittleEndian.Uint32(audio[40:44])
	if byteRate == 0 {
		return 0, false
	}
	return float64(dataSize) / float64(byteRate), true
}
