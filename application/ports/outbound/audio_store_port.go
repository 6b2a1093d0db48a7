package outbound

import (
	"context"
	"io"
)

// AudioStorePort persists per-chunk audio buffers and the assembled
// artifact. Refs are opaque to callers (local path or object key).
type AudioStorePort interface {
	SaveChunk(ctx context.Context, jobID string, index int, data []byte) (string, error)
	ReadChunk(ctx context.Context, ref string) ([]byte, error)
	SaveArtifact(ctx context.Context, jobID string, data []byte) (string, error)
	OpenArtifact(ctx context.Context, ref string) (io.ReadCloser, int64, error)
	RemoveChunks(ctx context.Context, jobID string) error
	RemoveArtifact(ctx context.Context, ref string) error
}
