package outbound

import "context"

type SynthesizeSpeechRequest struct {
	Text    string
	VoiceID string
}

// SpeechSynthesizerPort converts one chunk of text into audio bytes via
// an external voice service. Implementations classify failures as
// transient or permanent through domain.SynthesisError; retry policy
// lives with the caller.
type SpeechSynthesizerPort interface {
	Synthesize(ctx context.Context, req SynthesizeSpeechRequest) ([]byte, error)
}
