package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Job is a periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Coordinator decides which process runs a job and keeps its run history.
// A nil Coordinator runs every job locally.
type Coordinator interface {
	AcquireLease(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	RecordRun(ctx context.Context, job string, at time.Time) error
	LastRuns(ctx context.Context) (map[string]time.Time, error)
}

// Manager runs jobs on their own tickers until stopped.
type Manager struct {
	jobs    []Job
	coord   Coordinator
	owner   string
	now     func() time.Time
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewManager creates a manager for jobs. Each process gets a random owner id
// for lease ownership.
func NewManager(coord Coordinator, jobs ...Job) *Manager {
	return &Manager{
		jobs:  jobs,
		coord: coord,
		owner: uuid.NewString(),
		now:   time.Now,
	}
}

// Owner returns the lease owner id of this process.
func (m *Manager) Owner() string {
	return m.owner
}

// Start launches one worker per job.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.stopCh = make(chan struct{})
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	log.Infof("[Scheduler] Starting %d background jobs (owner=%s)", len(m.jobs), m.owner)

	for _, job := range m.jobs {
		if job.Interval <= 0 || job.Run == nil {
			log.Warnf("[Scheduler] Skipping job %q without interval or run func", job.Name)
			continue
		}
		m.wg.Add(1)
		go m.worker(runCtx, job, m.stopCh)
	}
}

// Stop signals all workers and waits for running ticks to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	log.Info("[Scheduler] Stopping background jobs...")
	close(m.stopCh)
	m.cancel()
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	log.Info("[Scheduler] Stopped successfully")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) worker(ctx context.Context, job Job, stopCh chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := m.RunOnce(ctx, job); err != nil {
				log.Errorf("[Scheduler] Job %s failed: %v", job.Name, err)
			}
		}
	}
}

// RunOnce runs a single tick of job. It returns false when another process
// holds the lease or the lease could not be checked.
func (m *Manager) RunOnce(ctx context.Context, job Job) (ran bool, err error) {
	if m.coord != nil {
		held, leaseErr := m.coord.AcquireLease(ctx, job.Name, m.owner, leaseTTL(job.Interval))
		if leaseErr != nil {
			log.Warnf("[Scheduler] Lease check for %s failed, skipping tick: %v", job.Name, leaseErr)
			return false, nil
		}
		if !held {
			return false, nil
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()

	if err := job.Run(ctx); err != nil {
		return true, err
	}

	if m.coord != nil {
		if recErr := m.coord.RecordRun(ctx, job.Name, m.now()); recErr != nil {
			log.Warnf("[Scheduler] Could not record run of %s: %v", job.Name, recErr)
		}
	}
	return true, nil
}

// LastRuns returns the recorded completion times, or nil without a coordinator.
func (m *Manager) LastRuns(ctx context.Context) (map[string]time.Time, error) {
	if m.coord == nil {
		return nil, nil
	}
	return m.coord.LastRuns(ctx)
}

// The lease outlives one interval so a healthy owner keeps renewing it and a
// dead owner's lease lapses after a couple of missed ticks.
func leaseTTL(interval time.Duration) time.Duration {
	return 2*interval + time.Second
}
