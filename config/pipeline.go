package config

import "time"

// PipelineConfig bounds the conversion pipeline: chunk sizing, the
// process-wide synthesis concurrency cap, and the shared retry contract.
type PipelineConfig struct {
	MaxChunkChars  int
	MinChunkChars  int
	MaxConcurrent  int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

func GetPipelineConfig() (*PipelineConfig, error) {
	maxChunk, err := getEnvInt("MAX_CHUNK_SIZE", 2000)
	if err != nil {
		return nil, err
	}
	minChunk, err := getEnvInt("MIN_CHUNK_SIZE", 100)
	if err != nil {
		return nil, err
	}
	maxConcurrent, err := getEnvInt("MAX_CONCURRENT_SYNTHESIS", 4)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getEnvInt("MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	baseDelay, err := getEnvDuration("RETRY_BASE_DELAY", time.Second)
	if err != nil {
		return nil, err
	}
	maxDelay, err := getEnvDuration("RETRY_MAX_DELAY", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &PipelineConfig{
		MaxChunkChars:  maxChunk,
		MinChunkChars:  minChunk,
		MaxConcurrent:  maxConcurrent,
		MaxAttempts:    maxAttempts,
		RetryBaseDelay: baseDelay,
		RetryMaxDelay:  maxDelay,
	}, nil
}
