package adapters

import (
	"fmt"
	"sync"
	"time"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
)

type jobRecord struct {
	mu         sync.Mutex
	job        domain.Job
	refs       int
	terminalAt time.Time
}

// MemoryJobStore is the process-local job registry. The map lock only
// guards membership; each record carries its own mutex so unrelated jobs
// never contend, and readers always get deep-copied snapshots.
type MemoryJobStore struct {
	mu        sync.RWMutex
	records   map[string]*jobRecord
	retention time.Duration
	onEvict   func(domain.Job)
	logger    outbound.LoggerPort
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewMemoryJobStore starts a janitor that evicts terminal records after
// the retention window. onEvict runs outside any lock and is where the
// caller reclaims the job's artifact; it may be nil.
func NewMemoryJobStore(retention time.Duration, onEvict func(domain.Job), logger outbound.LoggerPort) *MemoryJobStore {
	s := &MemoryJobStore{
		records:   make(map[string]*jobRecord),
		retention: retention,
		onEvict:   onEvict,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	go s.janitor()
	return s
}

var _ outbound.JobStorePort = (*MemoryJobStore)(nil)

func (s *MemoryJobStore) Create(job domain.Job) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[job.ID]; exists {
		return "", &domain.StorageError{Op: "create", Err: fmt.Errorf("job %s already exists", job.ID)}
	}
	s.records[job.ID] = &jobRecord{job: job.Clone()}
	return job.ID, nil
}

func (s *MemoryJobStore) Get(id string) (domain.Job, error) {
	rec, err := s.record(id)
	if err != nil {
		return domain.Job{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job.Clone(), nil
}

// Update applies mutate under the record lock and publishes the result
// atomically. Terminal records reject mutation, and a status change must
// follow the allowed transition graph.
func (s *MemoryJobStore) Update(id string, mutate func(*domain.Job)) (domain.Job, error) {
	rec, err := s.record(id)
	if err != nil {
		return domain.Job{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status.IsTerminal() {
		return domain.Job{}, outbound.ErrJobTerminal
	}

	next := rec.job.Clone()
	mutate(&next)

	if next.Status != rec.job.Status && !domain.ValidTransition(rec.job.Status, next.Status) {
		return domain.Job{}, &domain.StorageError{
			Op:  "update",
			Err: fmt.Errorf("invalid transition %s -> %s", rec.job.Status, next.Status),
		}
	}

	next.UpdatedAt = time.Now().UTC()
	rec.job = next
	if next.Status.IsTerminal() {
		rec.terminalAt = next.UpdatedAt
	}

	return next.Clone(), nil
}

func (s *MemoryJobStore) List() []domain.Job {
	s.mu.RLock()
	recs := make([]*jobRecord, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		jobs = append(jobs, rec.job.Clone())
		rec.mu.Unlock()
	}
	return jobs
}

// Evict removes the record unless a download still pins its artifact.
func (s *MemoryJobStore) Evict(id string) (domain.Job, bool) {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return domain.Job{}, false
	}

	rec.mu.Lock()
	if rec.refs > 0 {
		rec.mu.Unlock()
		s.mu.Unlock()
		return domain.Job{}, false
	}
	job := rec.job.Clone()
	rec.mu.Unlock()

	delete(s.records, id)
	s.mu.Unlock()

	return job, true
}

// AcquireArtifact holds the map lock until the pin lands; an Evict
// running between lookup and refs++ could otherwise delete the record and
// reclaim the artifact out from under the download.
func (s *MemoryJobStore) AcquireArtifact(id string) (string, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return "", nil, outbound.ErrJobNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != domain.JobStatusCompleted || rec.job.OutputRef == "" {
		return "", nil, &domain.StorageError{
			Op:  "acquire artifact",
			Err: fmt.Errorf("job %s has no artifact", id),
		}
	}

	rec.refs++
	var once sync.Once
	release := func() {
		once.Do(func() {
			rec.mu.Lock()
			rec.refs--
			rec.mu.Unlock()
		})
	}

	return rec.job.OutputRef, release, nil
}

// Close stops the janitor. Records stay readable.
func (s *MemoryJobStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryJobStore) record(id string) (*jobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, outbound.ErrJobNotFound
	}
	return rec, nil
}

func (s *MemoryJobStore) janitor() {
	interval := s.retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

// sweep evicts terminal records older than the retention window, skipping
// any with pinned artifacts; those get picked up on a later tick.
func (s *MemoryJobStore) sweep(now time.Time) {
	s.mu.RLock()
	expired := make([]string, 0)
	for id, rec := range s.records {
		rec.mu.Lock()
		if rec.job.Status.IsTerminal() && rec.refs == 0 && now.Sub(rec.terminalAt) > s.retention {
			expired = append(expired, id)
		}
		rec.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, id := range expired {
		if job, ok := s.Evict(id); ok {
			if s.onEvict != nil {
				s.onEvict(job)
			}
			s.logger.InfoWithFields("evicted expired job", map[string]interface{}{
				"job_id": id,
				"status": string(job.Status),
			})
		}
	}
}
