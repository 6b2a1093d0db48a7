package services

import (
	"context"
	"sync"

	"github.com/tbui88/pdf-tts/application/ports/inbound"
	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

type chunkSynthesizer struct {
	synthesizer outbound.SpeechSynthesizerPort
	audioStore  outbound.AudioStorePort
	synthPool   outbound.TaskDispatcher
	retry       RetryPolicy
	logger      outbound.LoggerPort
}

// NewChunkSynthesizer wires the external synthesizer behind the shared
// retry policy. synthPool must be the fixed-capacity pool that caps
// in-flight external calls process-wide.
func NewChunkSynthesizer(synthesizer outbound.SpeechSynthesizerPort, audioStore outbound.AudioStorePort,
	synthPool outbound.TaskDispatcher, retry RetryPolicy,
	logger outbound.LoggerPort) inbound.ChunkSynthesizerPort {
	return &chunkSynthesizer{
		synthesizer: synthesizer,
		audioStore:  audioStore,
		synthPool:   synthPool,
		retry:       retry,
		logger:      logger,
	}
}

func (s *chunkSynthesizer) SynthesizeAll(ctx context.Context, jobID string, chunks []domain.Chunk,
	voiceID string) (<-chan inbound.ChunkResult, <-chan error) {
	out := make(chan inbound.ChunkResult)
	errCh := make(chan error, 1)

	newCtx, cancel := context.WithCancel(ctx)

	var errOnce sync.Once
	fail := func(err error) {
		errOnce.Do(func() {
			errCh <- err
		})
		cancel()
	}

	// The fan-out driver gets its own goroutine rather than a shared
	// pool: callers block on the result channels, so the driver must
	// always be schedulable even while every pool worker is busy with a
	// job body. Only the synthesis calls themselves are pool-bounded.
	go func() {
		defer close(out)
		defer close(errCh)
		defer cancel()

		var wg sync.WaitGroup

		for _, chunk := range chunks {
			if newCtx.Err() != nil {
				break
			}

			chunk := chunk
			wg.Add(1)
			// Submit blocks while the pool is saturated, which is what
			// bounds concurrent external calls across all jobs.
			err := s.synthPool.Submit(func() {
				defer wg.Done()
				s.synthesizeOne(newCtx, jobID, chunk, voiceID, out, fail)
			})
			if err != nil {
				wg.Done()
				fail(&domain.StorageError{Op: "dispatch", Err: err})
				break
			}
		}

		wg.Wait()
	}()

	return out, errCh
}

func (s *chunkSynthesizer) synthesizeOne(ctx context.Context, jobID string, chunk domain.Chunk,
	voiceID string, out chan<- inbound.ChunkResult, fail func(error)) {
	if ctx.Err() != nil {
		return
	}

	var audio []byte
	attempts, err := s.retry.Do(ctx, func(callCtx context.Context) error {
		data, callErr := s.synthesizer.Synthesize(callCtx, outbound.SynthesizeSpeechRequest{
			Text:    chunk.Text,
			VoiceID: voiceID,
		})
		if callErr != nil {
			return callErr
		}
		audio = data
		return nil
	})
	if err != nil {
		if ctx.Err() != nil && err == ctx.Err() {
			return
		}
		s.logger.ErrorWithFields(err, "chunk synthesis gave up", map[string]interface{}{
			"job_id":   jobID,
			"chunk":    chunk.Index,
			"attempts": attempts,
		})
		fail(&inbound.ChunkFailedError{Index: chunk.Index, Attempts: attempts, Err: err})
		return
	}

	ref, err := s.audioStore.SaveChunk(ctx, jobID, chunk.Index, audio)
	if err != nil {
		fail(&inbound.ChunkFailedError{Index: chunk.Index, Attempts: attempts,
			Err: &domain.StorageError{Op: "save chunk audio", Err: err}})
		return
	}

	select {
	case out <- inbound.ChunkResult{Index: chunk.Index, AudioRef: ref, Attempts: attempts}:
	case <-ctx.Done():
	}
}
