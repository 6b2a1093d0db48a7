package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

type localAudioStore struct {
	dir    string
	logger outbound.LoggerPort
}

// NewLocalAudioStore keeps chunk buffers and artifacts as files under dir:
// {job}_chunk_{index}.mp3 for chunks, {job}.mp3 for the artifact.
func NewLocalAudioStore(dir string, logger outbound.LoggerPort) (outbound.AudioStorePort, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "create audio dir", Err: err}
	}
	return &localAudioStore{dir: dir, logger: logger}, nil
}

func (s *localAudioStore) SaveChunk(ctx context.Context, jobID string, index int, data []byte) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_chunk_%d.mp3", jobID, index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &domain.StorageError{Op: "write chunk audio", Err: err}
	}
	return path, nil
}

func (s *localAudioStore) ReadChunk(ctx context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, &domain.StorageError{Op: "read chunk audio", Err: err}
	}
	return data, nil
}

func (s *localAudioStore) SaveArtifact(ctx context.Context, jobID string, data []byte) (string, error) {
	path := filepath.Join(s.dir, jobID+".mp3")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &domain.StorageError{Op: "write artifact", Err: err}
	}
	return path, nil
}

func (s *localAudioStore) OpenArtifact(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, 0, &domain.StorageError{Op: "open artifact", Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, &domain.StorageError{Op: "stat artifact", Err: err}
	}
	return f, info.Size(), nil
}

func (s *localAudioStore) RemoveChunks(ctx context.Context, jobID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, jobID+"_chunk_*.mp3"))
	if err != nil {
		return &domain.StorageError{Op: "list chunk audio", Err: err}
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.ErrorWithFields(err, "failed to remove chunk file", map[string]interface{}{
				"path": path,
			})
		}
	}
	return nil
}

func (s *localAudioStore) RemoveArtifact(ctx context.Context, ref string) error {
	if err := os.Remove(ref); err != nil && !os.IsNotExist(err) {
		return &domain.StorageError{Op: "remove artifact", Err: err}
	}
	return nil
}
