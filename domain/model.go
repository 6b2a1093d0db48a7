package domain

import "time"

type JobStatus string

const (
	JobStatusQueued       JobStatus = "queued"
	JobStatusExtracting   JobStatus = "extracting"
	JobStatusChunking     JobStatus = "chunking"
	JobStatusSynthesizing JobStatus = "synthesizing"
	JobStatusMerging      JobStatus = "merging"
	JobStatusCompleted    JobStatus = "completed"
	JobStatusFailed       JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type ChunkStatus string

const (
	ChunkStatusPending      ChunkStatus = "pending"
	ChunkStatusSynthesizing ChunkStatus = "synthesizing"
	ChunkStatusDone         ChunkStatus = "done"
	ChunkStatusFailed       ChunkStatus = "failed"
)

// Chunk is one bounded span of document text, the unit of a single
// synthesis call. Index defines final audio ordering.
type Chunk struct {
	Index    int         `json:"index"`
	Text     string      `json:"text"`
	Status   ChunkStatus `json:"status"`
	AudioRef string      `json:"audio_ref,omitempty"`
	Attempts int         `json:"attempts"`
}

// JobError records where and why a conversion failed.
type JobError struct {
	Stage string `json:"stage"`
	Cause string `json:"cause"`
}

// Job is one document-to-audio conversion request and its tracked state.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Progress   float64   `json:"progress"`
	Message    string    `json:"message"`
	SourceName string    `json:"source_name"`
	OutputName string    `json:"output_name,omitempty"`
	Chunks     []Chunk   `json:"chunks,omitempty"`
	OutputRef  string    `json:"output_ref,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	Error      *JobError `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewJob(id string, sourceName string) Job {
	now := time.Now().UTC()
	return Job{
		ID:         id,
		Status:     JobStatusQueued,
		Message:    "Waiting for conversion to start...",
		SourceName: sourceName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy, so snapshots handed to readers never alias
// the chunk slice the orchestrator mutates.
func (j Job) Clone() Job {
	out := j
	if j.Chunks != nil {
		out.Chunks = make([]Chunk, len(j.Chunks))
		copy(out.Chunks, j.Chunks)
	}
	if j.Error != nil {
		e := *j.Error
		out.Error = &e
	}
	return out
}

// ValidTransition enforces the allowed state machine edges:
// queued -> extracting -> chunking -> synthesizing -> merging -> completed,
// with failed reachable from any non-terminal state.
func ValidTransition(from, to JobStatus) bool {
	if to == JobStatusFailed {
		return !from.IsTerminal()
	}
	switch from {
	case JobStatusQueued:
		return to == JobStatusExtracting
	case JobStatusExtracting:
		return to == JobStatusChunking
	case JobStatusChunking:
		return to == JobStatusSynthesizing
	case JobStatusSynthesizing:
		return to == JobStatusMerging
	case JobStatusMerging:
		return to == JobStatusCompleted
	default:
		return false
	}
}
