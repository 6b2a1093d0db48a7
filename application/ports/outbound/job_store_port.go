package outbound

import (
	"errors"

	"github.com/tbui88/pdf-tts/domain"
)

// ErrJobNotFound is returned for unknown or evicted job identifiers.
var ErrJobNotFound = errors.New("job not found")

// ErrJobTerminal is returned when a mutation targets a completed or
// failed job.
var ErrJobTerminal = errors.New("job is in a terminal state")

// JobStorePort is the concurrency-safe registry of job records. Update
// applies the mutator under the record's lock and publishes the new
// snapshot atomically, so a poller never observes a half-written record.
type JobStorePort interface {
	Create(job domain.Job) (string, error)
	Get(id string) (domain.Job, error)
	Update(id string, mutate func(*domain.Job)) (domain.Job, error)
	List() []domain.Job
	Evict(id string) (domain.Job, bool)

	// AcquireArtifact pins a completed job's artifact against eviction
	// while a download streams it. The release func must be called once.
	AcquireArtifact(id string) (ref string, release func(), err error)
}
