package inbound

import "context"

type StartConversionParams struct {
	SourceName string
	Document   []byte
	VoiceID    string
}

// ConversionOrchestratorPort drives one job through extraction, chunking,
// synthesis and assembly as a background unit of work. Start returns the
// job identifier immediately; Run is the worker body and blocks until the
// job reaches a terminal state.
type ConversionOrchestratorPort interface {
	Start(ctx context.Context, params StartConversionParams) (string, error)
	Run(ctx context.Context, jobID string, document []byte, voiceID string)
}
