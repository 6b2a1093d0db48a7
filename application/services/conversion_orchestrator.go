package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tbui88/pdf-tts/application/ports/inbound"
	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

type conversionOrchestrator struct {
	jobStore    outbound.JobStorePort
	extractor   outbound.TextExtractorPort
	chunker     inbound.TextChunkerPort
	synthesizer inbound.ChunkSynthesizerPort
	assembler   inbound.AudioAssemblerPort
	audioStore  outbound.AudioStorePort
	dispatcher  outbound.TaskDispatcher
	logger      outbound.LoggerPort
}

// NewConversionOrchestrator builds the state machine that drives one job
// through extraction, chunking, synthesis and assembly, writing every
// transition to the job store.
func NewConversionOrchestrator(jobStore outbound.JobStorePort, extractor outbound.TextExtractorPort,
	chunker inbound.TextChunkerPort, synthesizer inbound.ChunkSynthesizerPort,
	assembler inbound.AudioAssemblerPort, audioStore outbound.AudioStorePort,
	dispatcher outbound.TaskDispatcher, logger outbound.LoggerPort) inbound.ConversionOrchestratorPort {
	return &conversionOrchestrator{
		jobStore:    jobStore,
		extractor:   extractor,
		chunker:     chunker,
		synthesizer: synthesizer,
		assembler:   assembler,
		audioStore:  audioStore,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

func (o *conversionOrchestrator) Start(ctx context.Context, params inbound.StartConversionParams) (string, error) {
	jobID := uuid.NewString()
	if _, err := o.jobStore.Create(domain.NewJob(jobID, params.SourceName)); err != nil {
		return "", err
	}

	document := params.Document
	voiceID := params.VoiceID
	if err := o.dispatcher.Submit(func() {
		o.Run(context.Background(), jobID, document, voiceID)
	}); err != nil {
		o.fail(jobID, "queued", &domain.StorageError{Op: "dispatch job", Err: err})
		return "", err
	}

	o.logger.InfoWithFields("conversion job created", map[string]interface{}{
		"job_id": jobID,
		"source": params.SourceName,
		"bytes":  len(params.Document),
	})

	return jobID, nil
}

// Run executes the pipeline for one job and blocks until the job is
// terminal. It is normally dispatched by Start but exposed so tests can
// drive it synchronously.
func (o *conversionOrchestrator) Run(ctx context.Context, jobID string, document []byte, voiceID string) {
	if err := o.transition(jobID, domain.JobStatusExtracting, "Extracting text from PDF..."); err != nil {
		o.logger.Error(err, "failed to enter extracting stage")
		return
	}

	segments, err := o.extractor.Extract(ctx, document)
	if err != nil {
		o.fail(jobID, "extracting", err)
		return
	}
	text := strings.Join(segments, "\n\n")

	if err := o.transition(jobID, domain.JobStatusChunking, "Processing and chunking text..."); err != nil {
		o.logger.Error(err, "failed to enter chunking stage")
		return
	}

	chunks := o.chunker.Chunk(text)
	if len(chunks) == 0 {
		// Zero chunks means the document had no synthesizable text;
		// never enter the synthesizing stage for it.
		o.fail(jobID, "chunking", &domain.ExtractionError{Reason: "document contains no synthesizable text"})
		return
	}

	if _, err := o.jobStore.Update(jobID, func(j *domain.Job) {
		j.Chunks = chunks
		j.Status = domain.JobStatusSynthesizing
		j.Message = "Converting text to speech..."
		raiseProgress(j, domain.StageProgress(domain.JobStatusSynthesizing))
		for i := range j.Chunks {
			j.Chunks[i].Status = domain.ChunkStatusSynthesizing
		}
	}); err != nil {
		o.logger.Error(err, "failed to enter synthesizing stage")
		return
	}

	if failure := o.synthesizeChunks(ctx, jobID, chunks, voiceID); failure != nil {
		o.fail(jobID, "synthesizing", failure)
		o.cleanupChunks(ctx, jobID)
		return
	}

	// From here on chunk audio exists on disk; every exit path must
	// reclaim it, including updates failing because the record was
	// evicted mid-run.
	if err := o.transition(jobID, domain.JobStatusMerging, "Merging audio files..."); err != nil {
		o.logger.Error(err, "failed to enter merging stage")
		o.cleanupChunks(ctx, jobID)
		return
	}

	job, err := o.jobStore.Get(jobID)
	if err != nil {
		o.fail(jobID, "merging", err)
		o.cleanupChunks(ctx, jobID)
		return
	}

	result, err := o.assembler.Assemble(ctx, jobID, job.Chunks)
	if err != nil {
		o.fail(jobID, "merging", err)
		o.cleanupChunks(ctx, jobID)
		return
	}
	o.cleanupChunks(ctx, jobID)

	if _, err := o.jobStore.Update(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.Message = "Conversion completed successfully!"
		j.OutputRef = result.OutputRef
		j.OutputName = outputName(j.SourceName)
		j.Duration = result.Duration
		raiseProgress(j, domain.StageProgress(domain.JobStatusCompleted))
	}); err != nil {
		o.logger.Error(err, "failed to complete job")
		// Nothing references the artifact anymore; reclaim it.
		if remErr := o.audioStore.RemoveArtifact(ctx, result.OutputRef); remErr != nil {
			o.logger.Error(remErr, "failed to reclaim orphaned artifact")
		}
		return
	}

	o.logger.InfoWithFields("conversion completed", map[string]interface{}{
		"job_id":   jobID,
		"chunks":   len(chunks),
		"duration": result.Duration,
	})
}

// synthesizeChunks consumes fan-in results, updating per-chunk state and
// blended progress after every completion. It returns the first failure
// after all in-flight work has settled, or nil when every chunk is done.
func (o *conversionOrchestrator) synthesizeChunks(ctx context.Context, jobID string,
	chunks []domain.Chunk, voiceID string) error {
	resCh, errCh := o.synthesizer.SynthesizeAll(ctx, jobID, chunks, voiceID)

	total := len(chunks)
	done := 0
	var failure error

	for resCh != nil || errCh != nil {
		select {
		case res, ok := <-resCh:
			if !ok {
				resCh = nil
				continue
			}
			done++
			completed := done
			if _, err := o.jobStore.Update(jobID, func(j *domain.Job) {
				j.Chunks[res.Index].Status = domain.ChunkStatusDone
				j.Chunks[res.Index].AudioRef = res.AudioRef
				j.Chunks[res.Index].Attempts = res.Attempts
				j.Message = fmt.Sprintf("Converting chunk %d/%d...", completed, total)
				raiseProgress(j, domain.SynthesisProgress(completed, total))
			}); err != nil && failure == nil {
				failure = err
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if failure == nil {
				failure = err
			}
			var chunkErr *inbound.ChunkFailedError
			if errors.As(err, &chunkErr) {
				index, attempts := chunkErr.Index, chunkErr.Attempts
				_, _ = o.jobStore.Update(jobID, func(j *domain.Job) {
					j.Chunks[index].Status = domain.ChunkStatusFailed
					j.Chunks[index].Attempts = attempts
				})
			}
		}
	}

	if failure != nil {
		return failure
	}
	if done != total {
		return &domain.AssemblyError{Reason: fmt.Sprintf("only %d of %d chunks synthesized", done, total)}
	}
	return nil
}

func (o *conversionOrchestrator) transition(jobID string, to domain.JobStatus, message string) error {
	_, err := o.jobStore.Update(jobID, func(j *domain.Job) {
		j.Status = to
		j.Message = message
		raiseProgress(j, domain.StageProgress(to))
	})
	return err
}

func (o *conversionOrchestrator) fail(jobID string, stage string, cause error) {
	o.logger.ErrorWithFields(cause, "conversion failed", map[string]interface{}{
		"job_id": jobID,
		"stage":  stage,
	})
	if _, err := o.jobStore.Update(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusFailed
		j.Error = &domain.JobError{Stage: stage, Cause: cause.Error()}
		j.Message = "Conversion failed: " + cause.Error()
	}); err != nil {
		o.logger.Error(err, "failed to record job failure")
	}
}

func (o *conversionOrchestrator) cleanupChunks(ctx context.Context, jobID string) {
	if err := o.audioStore.RemoveChunks(ctx, jobID); err != nil {
		o.logger.ErrorWithFields(err, "failed to remove chunk audio", map[string]interface{}{
			"job_id": jobID,
		})
	}
}

// raiseProgress keeps progress monotonically non-decreasing.
func raiseProgress(j *domain.Job, p float64) {
	if p > j.Progress {
		j.Progress = p
	}
}

func outputName(sourceName string) string {
	base := sourceName
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" {
		base = "audio"
	}
	return base + ".mp3"
}
