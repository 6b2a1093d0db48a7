package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tbui88/pdf-tts/application/ports/inbound"
	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

// mp3BytesPerSecond is the 128 kbps estimate used for reported duration
// when no decoder is available.
const mp3BytesPerSecond = 128 * 1024 / 8

type audioAssembler struct {
	audioStore outbound.AudioStorePort
	logger     outbound.LoggerPort
}

// NewAudioAssembler concatenates per-chunk MP3 buffers, in index order,
// into one artifact persisted through the audio store.
func NewAudioAssembler(audioStore outbound.AudioStorePort, logger outbound.LoggerPort) inbound.AudioAssemblerPort {
	return &audioAssembler{
		audioStore: audioStore,
		logger:     logger,
	}
}

func (a *audioAssembler) Assemble(ctx context.Context, jobID string, chunks []domain.Chunk) (inbound.AssembleResult, error) {
	if len(chunks) == 0 {
		return inbound.AssembleResult{}, &domain.AssemblyError{Reason: "no chunks to assemble"}
	}

	var merged bytes.Buffer
	for _, chunk := range chunks {
		if chunk.Status != domain.ChunkStatusDone {
			return inbound.AssembleResult{}, &domain.AssemblyError{
				Reason: fmt.Sprintf("chunk %d is %s, expected done", chunk.Index, chunk.Status),
			}
		}

		data, err := a.audioStore.ReadChunk(ctx, chunk.AudioRef)
		if err != nil {
			return inbound.AssembleResult{}, &domain.AssemblyError{
				Reason: fmt.Sprintf("chunk %d audio unreadable: %v", chunk.Index, err),
			}
		}
		if !isMP3(data) {
			return inbound.AssembleResult{}, &domain.AssemblyError{
				Reason: fmt.Sprintf("chunk %d is not MP3-encoded", chunk.Index),
			}
		}

		// The first chunk keeps its metadata tag; subsequent tags would
		// land mid-stream and confuse players.
		if merged.Len() > 0 {
			data = stripID3(data)
		}
		merged.Write(data)
	}

	ref, err := a.audioStore.SaveArtifact(ctx, jobID, merged.Bytes())
	if err != nil {
		return inbound.AssembleResult{}, &domain.StorageError{Op: "save artifact", Err: err}
	}

	result := inbound.AssembleResult{
		OutputRef: ref,
		Duration:  float64(merged.Len()) / mp3BytesPerSecond,
	}

	a.logger.InfoWithFields("assembled audio artifact", map[string]interface{}{
		"job_id":   jobID,
		"chunks":   len(chunks),
		"bytes":    merged.Len(),
		"duration": result.Duration,
	})

	return result, nil
}

// isMP3 accepts buffers starting with an ID3v2 tag or an MPEG frame sync.
func isMP3(data []byte) bool {
	if len(data) < 3 {
		return false
	}
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// stripID3 removes a leading ID3v2 tag. The tag size is a 4-byte
// syncsafe integer at offset 6, excluding the 10-byte header.
func stripID3(data []byte) []byte {
	if len(data) < 10 || !bytes.HasPrefix(data, []byte("ID3")) {
		return data
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	end := 10 + size
	if end > len(data) {
		return data
	}
	return data[end:]
}
