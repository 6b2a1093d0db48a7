package inbound

import (
	"context"
	"fmt"

	"github.com/tbui88/pdf-tts/domain"
)

// ChunkResult reports one chunk's synthesis outcome. Results arrive in
// completion order, not index order.
type ChunkResult struct {
	Index    int
	AudioRef string
	Attempts int
}

// ChunkFailedError identifies the chunk whose synthesis attempts were
// exhausted or rejected permanently.
type ChunkFailedError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *ChunkFailedError) Error() string {
	return fmt.Sprintf("chunk %d failed after %d attempt(s): %v", e.Index, e.Attempts, e.Err)
}

func (e *ChunkFailedError) Unwrap() error { return e.Err }

// ChunkSynthesizerPort fans a job's chunks out to the external voice
// service under the process-wide concurrency limit and streams results
// back. A permanent failure (or exhausted retries) cancels outstanding
// submissions and surfaces exactly one error on the error channel.
// Both channels are closed once all in-flight work has settled.
type ChunkSynthesizerPort interface {
	SynthesizeAll(ctx context.Context, jobID string, chunks []domain.Chunk, voiceID string) (<-chan ChunkResult, <-chan error)
}
