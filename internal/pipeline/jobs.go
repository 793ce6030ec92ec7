package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/articlepipe/internal/store"
)

// JobStatus represents the state of an import job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusConverting JobStatus = "converting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// JobOptions are caller overrides applied on top of what the importer
// derives from the file.
type JobOptions struct {
	Title    string `json:"title,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Category string `json:"category,omitempty"`
	Publish  bool   `json:"publish,omitempty"`
}

// Job tracks the state of a single document import.
type Job struct {
	mu sync.Mutex

	ID        string `json:"job_id"`
	ArticleID string `json:"article_id"`
	Slug      string `json:"slug"`
	Source    string `json:"source"`

	Status   JobStatus  `json:"status"`
	Phase    string     `json:"phase"`
	Filename string     `json:"filename"`
	Options  JobOptions `json:"options"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress summarizes what the import produced.
type Progress struct {
	Blocks   int      `json:"blocks"`
	Headings int      `json:"headings"`
	Words    int      `json:"words"`
	Updated  bool     `json:"updated"`
	Errors   []string `json:"errors"`
}

// NewJob returns a queued job holding data.
func NewJob(filename, source string, data []byte, opts JobOptions) *Job {
	now := time.Now()
	return &Job{
		ID:        store.NewID(),
		Source:    source,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs not updated within the TTL and reports how many.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetConverted records block, heading and word counts of the import.
func (j *Job) SetConverted(blocks, headings, words int, hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Blocks = blocks
	j.Progress.Headings = headings
	j.Progress.Words = words
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetArticle records which article the job wrote or matched.
func (j *Job) SetArticle(id, slug string, updated bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ArticleID = id
	j.Slug = slug
	j.Progress.Updated = updated
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseData drops the file bytes once the job is finished.
func (j *Job) releaseData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string     `json:"job_id"`
	ArticleID   string     `json:"article_id,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Source      string     `json:"source"`
	Status      JobStatus  `json:"status"`
	Phase       string     `json:"phase"`
	Filename    string     `json:"filename"`
	Options     JobOptions `json:"options"`
	Progress    Progress   `json:"progress"`
	ContentHash string     `json:"content_hash,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		ArticleID:   j.ArticleID,
		Slug:        j.Slug,
		Source:      j.Source,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Options:     j.Options,
		Progress:    progress,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
