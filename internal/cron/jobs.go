package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job names registered by the cron worker.
const (
	JobStaleCartCleanup    = "stale-cart-cleanup"
	JobNotificationCleanup = "notification-cleanup"
	JobOutboxRetention     = "outbox-retention"
)

// Job is a scheduled task. Run reports how many rows it touched.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// Registry holds jobs in registration order; names are unique.
type Registry struct {
	jobs   []Job
	byName map[string]Job
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byName: map[string]Job{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name is required")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.byName[name] = job
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Select returns the named jobs, or every job when names is empty.
func (r *Registry) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		return r.Jobs(), nil
	}
	out := make([]Job, 0, len(names))
	for _, name := range names {
		job, ok := r.byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown cron job %q", name)
		}
		out = append(out, job)
	}
	return out, nil
}
