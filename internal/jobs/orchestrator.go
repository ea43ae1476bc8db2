// Package jobs runs scans asynchronously and tracks their progress.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/ratelimit"
	"github.com/raysh454/a11yscan/internal/scanner"
	"github.com/raysh454/a11yscan/internal/target"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`
	Code   string    `json:"code,omitempty"`

	// For progress
	Stage string `json:"stage,omitempty"`

	// For result
	Result *model.ScanResult `json:"result,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Finished reports whether s is terminal.
func (s JobStatus) Finished() bool {
	return s == JobDone || s == JobFailed || s == JobCanceled
}

type Job struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Status    JobStatus         `json:"status"`
	Stage     string            `json:"stage,omitempty"`
	Error     string            `json:"error,omitempty"`
	Code      string            `json:"code,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Result    *model.ScanResult `json:"result,omitempty"`
}

// feed keeps a job's event log and its live subscribers. A subscriber
// first receives the log, then new events until the job ends.
type feed struct {
	log  []JobEvent
	subs map[chan JobEvent]struct{}
	done bool
}

// Scanner is the part of scanner.Scanner the orchestrator drives.
type Scanner interface {
	ScanObserved(ctx context.Context, req model.ScanRequest, observe func(stage string)) (*model.ScanResult, error)
}

// ErrJobNotFound is returned for unknown or pruned job ids.
var ErrJobNotFound = errors.New("job not found")

type Orchestrator struct {
	cfg     Config
	scanner Scanner
	limiter *ratelimit.Limiter
	logger  logging.Logger
	now     func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	feeds      map[string]*feed
}

// NewOrchestrator ties together config, scanner and logger. limiter may be
// nil; the scanner it drives should not apply its own admission control.
func NewOrchestrator(cfg Config, sc Scanner, limiter *ratelimit.Limiter, logger logging.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = def.PruneInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:        cfg,
		scanner:    sc,
		limiter:    limiter,
		logger:     logging.OrNop(logger).With(logging.Field{Key: "component", Value: "jobs"}),
		now:        time.Now,
		baseCtx:    ctx,
		baseCancel: cancel,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
		feeds:      make(map[string]*feed),
	}
}

func (o *Orchestrator) emitJobEvent(job *Job, ev JobEvent) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	f, ok := o.feeds[job.ID]
	if !ok || f.done {
		return
	}
	f.log = append(f.log, ev)
	for ch := range f.subs {
		// Slow subscribers lose events rather than stall the scan.
		select {
		case ch <- ev:
		default:
		}
	}
}

// endFeed closes every subscriber of jobID.
func (o *Orchestrator) endFeed(jobID string) {
	f, ok := o.feeds[jobID]
	if !ok {
		return
	}
	f.done = true
	for ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}

// Subscribe returns a channel carrying every event of the job so far
// followed by new ones. The channel is closed when the job ends or when
// the returned cancel func is called. Each subscriber gets its own copy
// of the stream.
func (o *Orchestrator) Subscribe(jobID string) (<-chan JobEvent, func(), error) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	f, ok := o.feeds[jobID]
	if !ok {
		return nil, nil, ErrJobNotFound
	}

	ch := make(chan JobEvent, len(f.log)+o.cfg.EventBuffer)
	for _, ev := range f.log {
		ch <- ev
	}
	if f.done {
		close(ch)
		return ch, func() {}, nil
	}
	f.subs[ch] = struct{}{}

	cancel := func() {
		o.jobsMu.Lock()
		defer o.jobsMu.Unlock()
		if _, live := f.subs[ch]; live {
			delete(f.subs, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// update mutates a job under the lock.
func (o *Orchestrator) update(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

// StartScanJob admits and validates req synchronously, then scans in the
// background. Admission and URL errors are returned as *scanner.Error.
// The job outlives ctx; cancel it with CancelJob.
func (o *Orchestrator) StartScanJob(ctx context.Context, req model.ScanRequest) (*Job, error) {
	if o.limiter != nil && !o.limiter.Allow(req.ClientIdentity) {
		return nil, &scanner.Error{
			Kind:       scanner.KindRateLimited,
			Msg:        scanner.MsgRateLimited,
			RetryAfter: o.limiter.RetryAfter(req.ClientIdentity),
		}
	}
	url, err := target.Normalize(req.TargetURL)
	if err != nil {
		return nil, scanner.Wrap(scanner.KindInvalidURL, err)
	}
	req.TargetURL = url

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		URL:       url,
		Status:    JobPending,
		StartedAt: o.now().UTC(),
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(o.baseCtx, cancel)

	o.jobsMu.Lock()
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	o.feeds[jobID] = &feed{subs: make(map[chan JobEvent]struct{})}
	o.jobsMu.Unlock()

	o.emitJobEvent(job, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			stop()
			cancel()
			o.jobsMu.Lock()
			job.EndedAt = o.now().UTC()
			delete(o.jobCancels, jobID)
			o.endFeed(jobID)
			o.jobsMu.Unlock()
		}()
		o.run(jobCtx, job, req)
	}()

	return o.snapshot(job), nil
}

func (o *Orchestrator) run(ctx context.Context, job *Job, req model.ScanRequest) {
	o.update(job.ID, func(j *Job) { j.Status = JobRunning })
	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

	res, err := o.scanner.ScanObserved(ctx, req, func(stage string) {
		o.update(job.ID, func(j *Job) { j.Stage = stage })
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventProgress, Stage: stage})
	})

	if ctx.Err() != nil {
		msg := ctx.Err().Error()
		o.update(job.ID, func(j *Job) {
			j.Status = JobCanceled
			j.Error = msg
		})
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobCanceled, Error: msg})
		o.logger.Info("scan job canceled", logging.Field{Key: "job_id", Value: job.ID})
		return
	}

	if err != nil {
		kind := scanner.KindOf(err)
		msg := scanner.MsgScanFailed
		var se *scanner.Error
		if errors.As(err, &se) {
			msg = se.Msg
		}
		o.update(job.ID, func(j *Job) {
			j.Status = JobFailed
			j.Error = msg
			j.Code = string(kind)
		})
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobFailed, Error: msg, Code: string(kind)})
		o.logger.Warn("scan job failed",
			logging.Field{Key: "job_id", Value: job.ID},
			logging.Field{Key: "error", Value: err})
		return
	}

	o.update(job.ID, func(j *Job) {
		j.Status = JobDone
		j.Result = res
	})
	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventResult, Status: JobDone, Result: res})
}

// CancelJob stops a running job. It is a no-op for finished jobs.
func (o *Orchestrator) CancelJob(jobID string) error {
	o.jobsMu.Lock()
	_, known := o.jobs[jobID]
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if !known {
		return ErrJobNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetJob returns a copy of the job, or nil.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

// ListJobs returns copies of all known jobs, newest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		cp := *j
		out = append(out, &cp)
	}
	o.jobsMu.Unlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].StartedAt.Equal(out[k].StartedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].StartedAt.After(out[k].StartedAt)
	})
	return out
}

func (o *Orchestrator) snapshot(job *Job) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	cp := *job
	return &cp
}

// Prune drops finished jobs that ended more than olderThan ago and
// returns how many were removed.
func (o *Orchestrator) Prune(olderThan time.Duration) int {
	cutoff := o.now().Add(-olderThan)
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	n := 0
	for id, j := range o.jobs {
		if j.Status.Finished() && !j.EndedAt.IsZero() && j.EndedAt.Before(cutoff) {
			delete(o.jobs, id)
			delete(o.feeds, id)
			n++
		}
	}
	return n
}

// Run prunes expired jobs every PruneInterval until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	t := time.NewTicker(o.cfg.PruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := o.Prune(o.cfg.Retention); n > 0 {
				o.logger.Debug("pruned finished jobs", logging.Field{Key: "count", Value: n})
			}
		}
	}
}

// Close cancels every running job and waits for them to finish.
func (o *Orchestrator) Close() error {
	o.baseCancel()
	o.wg.Wait()
	return nil
}
