package inbound

import (
	"context"

	"github.com/tbui88/pdf-tts/domain"
)

// AssembleResult references the merged artifact and its estimated
// playback duration in seconds.
type AssembleResult struct {
	OutputRef string
	Duration  float64
}

// AudioAssemblerPort concatenates per-chunk audio, in index order, into
// one playable artifact. All chunks must be done and format-consistent.
type AudioAssemblerPort interface {
	Assemble(ctx context.Context, jobID string, chunks []domain.Chunk) (AssembleResult, error)
}
