package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/articlepipe/internal/config"
	"github.com/dgallion1/articlepipe/internal/parser"
	"github.com/dgallion1/articlepipe/internal/store"
)

// ErrQueueFull is returned by Submit when the job queue has no room.
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("import pipeline stopped")

// Orchestrator runs import jobs on a fixed pool of workers fed by a
// bounded queue. Jobs that target the same slug run one at a time.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	store store.Store
	log   *slog.Logger
	cfg   config.Config
	locks *slugLocks

	newWorker func() *Worker

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	// mu guards stopped and the send on queue against close.
	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, st store.Store, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		store: st,
		log:   log,
		cfg:   cfg,
		locks: newSlugLocks(),
	}
	o.newWorker = func() *Worker {
		w := NewWorker(st, log, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
		w.locks = o.locks
		return w
	}
	return o
}

// Start launches the workers and the job cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			w.log = w.log.With("worker", i)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.log.Info("import pipeline started", "workers", o.cfg.WorkerCount, "queue_size", o.cfg.MaxQueueSize)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Debug("expired import jobs removed", "count", n)
				}
			}
		}
	}()
}

// Stop cancels in-flight jobs and waits for the workers to exit. Later
// submits fail with ErrStopped.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.stopped = true
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.mu.Unlock()
		o.wg.Wait()
	})
}

// Submit records job and queues it without blocking. A full queue fails
// the job with phase "queue_full" and returns ErrQueueFull.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		job.releaseData()
		return ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Debug("import queued", "job_id", job.ID, "filename", job.Filename, "source", job.Source)
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		job.releaseData()
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// SubmitFile wraps data in a new job and queues it.
func (o *Orchestrator) SubmitFile(filename, source string, data []byte, opts JobOptions) (*Job, error) {
	job := NewJob(filename, source, data, opts)
	return job, o.Submit(job)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the article store for direct use by API handlers.
func (o *Orchestrator) Store() store.Store {
	return o.store
}
