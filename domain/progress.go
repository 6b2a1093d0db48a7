package domain

// Progress bases per stage. Synthesis advances from its base towards the
// merging base proportionally to the fraction of chunks done, so polling
// clients see smooth movement instead of a stall.
const (
	progressQueued       = 0
	progressExtracting   = 10
	progressChunking     = 30
	progressSynthesizing = 50
	progressMerging      = 85
	progressCompleted    = 100
)

// StageProgress returns the base progress value for a stage.
func StageProgress(status JobStatus) float64 {
	switch status {
	case JobStatusExtracting:
		return progressExtracting
	case JobStatusChunking:
		return progressChunking
	case JobStatusSynthesizing:
		return progressSynthesizing
	case JobStatusMerging:
		return progressMerging
	case JobStatusCompleted:
		return progressCompleted
	default:
		return progressQueued
	}
}

// SynthesisProgress blends the synthesizing base with the done fraction.
func SynthesisProgress(done, total int) float64 {
	if total <= 0 {
		return progressSynthesizing
	}
	span := float64(progressMerging - progressSynthesizing)
	return progressSynthesizing + span*float64(done)/float64(total)
}
