package runner

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/internal/testharness/reporter"
)

// Job is one meter to test.
type Job struct {
	// ID identifies the job in traces and the run history.
	ID string

	// Profile is the meter configuration. A claimed job owns a private
	// copy.
	Profile *device.Profile

	// Output collects the findings and writes the reports.
	Output *reporter.Output
}

// NewJob creates a job for p whose reports go below resultDir.
func NewJob(p *device.Profile, resultDir string, formats []reporter.Format) *Job {
	return &Job{
		ID:      uuid.NewString(),
		Profile: p,
		Output:  reporter.NewOutput(p.Name, resultDir, formats),
	}
}

// Done is closed once the job has been finalized.
func (j *Job) Done() <-chan struct{} {
	return j.Output.Done()
}

// Result returns the findings recorded so far.
func (j *Job) Result() *engine.RunResult {
	return j.Output.Result()
}

// JobQueue is the set of jobs waiting for a worker. A job leaves the
// queue when it is claimed and never returns.
type JobQueue struct {
	mu   sync.Mutex
	jobs []*Job
}

// NewJobQueue creates a queue holding jobs in order.
func NewJobQueue(jobs ...*Job) *JobQueue {
	return &JobQueue{jobs: append([]*Job(nil), jobs...)}
}

// Push appends jobs.
func (q *JobQueue) Push(jobs ...*Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, jobs...)
}

// Len returns the number of waiting jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Claim removes the head of the queue and returns it with a private copy
// of its profile. ok is false when the queue is empty.
func (q *JobQueue) Claim() (job *Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, false
	}
	head := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]

	claimed := *head
	claimed.Profile = head.Profile.Clone()
	return &claimed, true
}

// Drain removes and returns every waiting job.
func (q *JobQueue) Drain() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := q.jobs
	q.jobs = nil
	return jobs
}
