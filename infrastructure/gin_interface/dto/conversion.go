package dto

import "github.com/tbui88/pdf-tts/domain"

type ConvertResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type JobErrorResponse struct {
	Stage string `json:"stage"`
	Cause string `json:"cause"`
}

type StatusResponse struct {
	JobID     string            `json:"job_id"`
	Status    string            `json:"status"`
	Progress  float64           `json:"progress"`
	Message   string            `json:"message"`
	Filename  string            `json:"filename"`
	AudioURL  string            `json:"audio_url,omitempty"`
	Duration  float64           `json:"estimated_duration,omitempty"`
	Error     *JobErrorResponse `json:"error,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func StatusFromJob(job domain.Job) StatusResponse {
	res := StatusResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Message:   job.Message,
		Filename:  job.SourceName,
		CreatedAt: job.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: job.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if job.Status == domain.JobStatusCompleted {
		res.AudioURL = "/api/download/" + job.ID
		res.Duration = job.Duration
	}
	if job.Error != nil {
		res.Error = &JobErrorResponse{Stage: job.Error.Stage, Cause: job.Error.Cause}
	}
	return res
}

type VoiceResponse struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}
