package adapters

import (
	"context"
	"strings"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
)

// mp3SilentFrameHeader is a valid MPEG-1 Layer III frame sync for silence
// padding; enough for players and for the assembler's format check.
var mp3SilentFrameHeader = []byte{0xFF, 0xFB, 0x90, 0x00}

type mockSynthesizer struct {
	logger outbound.LoggerPort
}

// NewMockSynthesizer produces silent MP3 audio sized to the text's rough
// speaking time. Wired instead of the real service when no API key is
// configured, so the whole pipeline stays exercisable locally.
func NewMockSynthesizer(logger outbound.LoggerPort) outbound.SpeechSynthesizerPort {
	return &mockSynthesizer{logger: logger}
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeSpeechRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := len(strings.Fields(req.Text))
	seconds := words / 3
	if seconds < 1 {
		seconds = 1
	}

	frame := make([]byte, 144)
	copy(frame, mp3SilentFrameHeader)

	audio := make([]byte, 0, len(frame)*seconds*10)
	for i := 0; i < seconds*10; i++ {
		audio = append(audio, frame...)
	}

	m.logger.DebugWithFields("generated mock audio", map[string]interface{}{
		"seconds": seconds,
		"bytes":   len(audio),
	})

	return audio, nil
}
