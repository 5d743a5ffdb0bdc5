package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/stockdesk/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is the client view of one run of the close-price script.
type Job struct {
	ID         string     `json:"id"`
	Status     JobStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	OutputFile string     `json:"output_file,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type jobHandle struct {
	job    Job
	cancel context.CancelFunc
	done   chan struct{}
}

// JobRunner owns the close-price script processes. At most one runs at a
// time; finished jobs stay queryable for the life of the server.
type JobRunner struct {
	script config.Script
	log    *zap.Logger

	mu     sync.Mutex
	jobs   map[string]*jobHandle
	active string
}

func NewJobRunner(script config.Script, log *zap.Logger) *JobRunner {
	return &JobRunner{script: script, log: log, jobs: make(map[string]*jobHandle)}
}

// Start spawns the script. It fails with ErrJobRunning while another job is
// still running.
func (jr *JobRunner) Start() (Job, error) {
	jr.mu.Lock()
	defer jr.mu.Unlock()

	if jr.active != "" {
		return Job{}, ErrJobRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, jr.script.Command, jr.script.Args...)
	cmd.Dir = jr.script.Dir
	started := time.Now().UTC()
	if err := cmd.Start(); err != nil {
		cancel()
		return Job{}, err
	}

	h := &jobHandle{
		job:    Job{ID: uuid.NewString(), Status: JobRunning, StartedAt: started},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	jr.jobs[h.job.ID] = h
	jr.active = h.job.ID
	jr.log.Info("close-price job started", zap.String("job", h.job.ID), zap.Int("pid", cmd.Process.Pid))

	go jr.wait(ctx, cmd, h)
	return h.job, nil
}

func (jr *JobRunner) wait(ctx context.Context, cmd *exec.Cmd, h *jobHandle) {
	err := cmd.Wait()
	finished := time.Now().UTC()

	jr.mu.Lock()
	h.job.FinishedAt = &finished
	switch {
	case ctx.Err() != nil:
		h.job.Status = JobCancelled
	case err != nil:
		h.job.Status = JobFailed
		h.job.Error = err.Error()
	default:
		h.job.Status = JobSucceeded
		h.job.OutputFile = newestCSV(jr.script.OutputDir, h.job.StartedAt)
	}
	if jr.active == h.job.ID {
		jr.active = ""
	}
	job := h.job
	jr.mu.Unlock()

	h.cancel()
	close(h.done)
	jr.log.Info("close-price job finished", zap.String("job", job.ID), zap.String("status", string(job.Status)), zap.Error(err))
}

func (jr *JobRunner) Get(id string) (Job, error) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	h, ok := jr.jobs[id]
	if !ok {
		return Job{}, notFound("Job")
	}
	return h.job, nil
}

// Cancel kills a running job. Cancelling a finished job is a no-op.
func (jr *JobRunner) Cancel(id string) (Job, error) {
	jr.mu.Lock()
	h, ok := jr.jobs[id]
	jr.mu.Unlock()
	if !ok {
		return Job{}, notFound("Job")
	}
	h.cancel()
	<-h.done
	return jr.Get(id)
}

// Wait blocks until the job exits or ctx is done.
func (jr *JobRunner) Wait(ctx context.Context, id string) (Job, error) {
	jr.mu.Lock()
	h, ok := jr.jobs[id]
	jr.mu.Unlock()
	if !ok {
		return Job{}, notFound("Job")
	}
	select {
	case <-h.done:
		return jr.Get(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Shutdown kills whatever is still running.
func (jr *JobRunner) Shutdown(ctx context.Context) error {
	jr.mu.Lock()
	var running []*jobHandle
	for _, h := range jr.jobs {
		if h.job.Status == JobRunning {
			running = append(running, h)
		}
	}
	jr.mu.Unlock()

	for _, h := range running {
		h.cancel()
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// newestCSV returns the most recent *.csv in dir written at or after since.
func newestCSV(dir string, since time.Time) string {
	if dir == "" {
		return ""
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return ""
	}
	var (
		best    string
		bestMod time.Time
	)
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		mod := fi.ModTime()
		if mod.Before(since.Truncate(time.Second)) {
			continue
		}
		if best == "" || mod.After(bestMod) {
			best, bestMod = m, mod
		}
	}
	return best
}
