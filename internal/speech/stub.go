package speech

import (
	"context"
	"encoding/binary"
	"strings"

	"clipforge/internal/captions"
)

const (
	wavSampleRate      = 44100
	wavNumChannels     = 1
	wavBitsPerSample   = 16
	wavHeaderSize      = 44
	wavSubchunkSize    = 16
	wavAudioFormat     = 1
	wavChunkSizeOffset = 36
)

// StubProvider emits silent WAV audio sized from a reading-speed estimate.
// Used when no synthesis key is configured, and by tests.
type StubProvider struct{}

func NewStubProvider() Provider {
	return &StubProvider{}
}

func (s *StubProvider) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	req = req.withDefaults()
	wordCount := len(strings.Fields(req.Text))
	wpm := captions.ReadingSpeed(req.Language) * req.Speed
	duration := float64(wordCount) / wpm * 60.0
	return generateSilentWAV(duration), nil
}

func generateSilentWAV(durationSec float64) []byte {
	bytesPerSample := wavBitsPerSample / 8
	numSamples := int(durationSec * float64(wavSampleRate))
	dataSize := numSamples * wavNumChannels * bytesPerSample
	byteRate := wavSampleRate * wavNumChannels * bytesPerSample
	blockAlign := wavNumChannels * bytesPerSample

	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wavChunkSizeOffset+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], wavSubchunkSize)
	binary.LittleEndian.PutUint16(buf[20:22], wavAudioFormat)
	binary.LittleEndian.PutUint16(buf[22:24], wavNumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], wavSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], wavBitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	return buf
}
