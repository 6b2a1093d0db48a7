package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
)

type nopLogger struct{}

func (nopLogger) Info(string)                                        {}
func (nopLogger) InfoWithFields(string, map[string]interface{})      {}
func (nopLogger) Error(error, string)                                {}
func (nopLogger) ErrorWithFields(error, string, map[string]interface{}) {}
func (nopLogger) Debug(string)                                       {}
func (nopLogger) DebugWithFields(string, map[string]interface{})     {}
func (nopLogger) Warn(string)                                        {}
func (nopLogger) WarnWithFields(string, map[string]interface{})      {}

// memAudioStore keeps chunk buffers and artifacts in maps, keyed by a
// synthetic ref.
type memAudioStore struct {
	mu        sync.Mutex
	chunks    map[string][]byte
	artifacts map[string][]byte
}

func newMemAudioStore() *memAudioStore {
	return &memAudioStore{
		chunks:    make(map[string][]byte),
		artifacts: make(map[string][]byte),
	}
}

func (s *memAudioStore) SaveChunk(_ context.Context, jobID string, index int, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := fmt.Sprintf("%s/chunk/%d", jobID, index)
	s.chunks[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (s *memAudioStore) ReadChunk(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.chunks[ref]
	if !ok {
		return nil, fmt.Errorf("no chunk at %s", ref)
	}
	return data, nil
}

func (s *memAudioStore) SaveArtifact(_ context.Context, jobID string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := jobID + "/output"
	s.artifacts[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (s *memAudioStore) OpenArtifact(_ context.Context, ref string) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.artifacts[ref]
	if !ok {
		return nil, 0, fmt.Errorf("no artifact at %s", ref)
	}
	return io.NopCloser(newByteReader(data)), int64(len(data)), nil
}

func (s *memAudioStore) RemoveChunks(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref := range s.chunks {
		if len(ref) >= len(jobID) && ref[:len(jobID)] == jobID {
			delete(s.chunks, ref)
		}
	}
	return nil
}

func (s *memAudioStore) RemoveArtifact(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, ref)
	return nil
}

func (s *memAudioStore) chunkCount(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ref := range s.chunks {
		if len(ref) >= len(jobID) && ref[:len(jobID)] == jobID {
			n++
		}
	}
	return n
}

func (s *memAudioStore) artifact(ref string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts[ref]
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

var _ outbound.AudioStorePort = (*memAudioStore)(nil)

// mp3Frame fabricates a recognizable MP3 buffer carrying a payload, so
// tests can assert assembly ordering by content.
func mp3Frame(payload string) []byte {
	return append([]byte{0xFF, 0xFB, 0x90, 0x00}, []byte(payload)...)
}
