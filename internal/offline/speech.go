package offline

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"time"

	"episodic/internal/services"
	"episodic/internal/stages"
)

// Silent WAV parameters: 8 kHz, mono, unsigned 8-bit.
const (
	sampleRate    = 8000
	silenceSample = 0x80
	// AudioFormat is the container written by Synthesizer.
	AudioFormat = "wav"
)

// Synthesizer renders silence lasting as long as the text would take to read.
type Synthesizer struct {
	Delay time.Duration
}

// NewSynthesizer constructs an offline synthesizer.
func NewSynthesizer(delay time.Duration) *Synthesizer {
	return &Synthesizer{Delay: delay}
}

// Synthesize implements stages.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, stages.StageNarration, "synthesize", "narration text empty", nil)
	}
	if err := wait(ctx, s.Delay); err != nil {
		return nil, err
	}
	return SilentWAV(stages.EstimateDuration(text)), nil
}

// SilentWAV returns a PCM WAV file of the given length.
func SilentWAV(seconds int) []byte {
	if seconds < 1 {
		seconds = 1
	}
	dataLen := uint32(seconds * sampleRate)
	var buf bytes.Buffer
	buf.Grow(int(dataLen) + 44)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(8))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(bytes.Repeat([]byte{silenceSample}, int(dataLen)))
	return buf.Bytes()
}
