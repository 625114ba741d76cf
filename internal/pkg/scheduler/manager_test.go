package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoordinator struct {
	mu       sync.Mutex
	holder   map[string]string
	runs     map[string]time.Time
	leaseErr error
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{holder: map[string]string{}, runs: map[string]time.Time{}}
}

func (f *fakeCoordinator) AcquireLease(_ context.Context, name, owner string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseErr != nil {
		return false, f.leaseErr
	}
	cur, ok := f.holder[name]
	if ok && cur != owner {
		return false, nil
	}
	f.holder[name] = owner
	return true, nil
}

func (f *fakeCoordinator) RecordRun(_ context.Context, job string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[job] = at
	return nil
}

func (f *fakeCoordinator) LastRuns(context.Context) (map[string]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Time, len(f.runs))
	for k, v := range f.runs {
		out[k] = v
	}
	return out, nil
}

func TestRunOnce_OnlyLeaseHolderRuns(t *testing.T) {
	coord := newFakeCoordinator()
	a := NewManager(coord)
	b := NewManager(coord)

	var calls int32
	job := Job{Name: "dlq-runner", Interval: time.Second, Run: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}}

	ran, err := a.RunOnce(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = b.RunOnce(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, ran)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	runs, err := a.LastRuns(context.Background())
	require.NoError(t, err)
	assert.Contains(t, runs, "dlq-runner")
}

func TestRunOnce_LeaseErrorSkipsTick(t *testing.T) {
	coord := newFakeCoordinator()
	coord.leaseErr = errors.New("redis down")
	m := NewManager(coord)

	called := false
	ran, err := m.RunOnce(context.Background(), Job{Name: "deferred-flush", Interval: time.Second, Run: func(context.Context) error {
		called = true
		return nil
	}})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.False(t, called)
}

func TestRunOnce_RecoversPanicAndSkipsRecord(t *testing.T) {
	coord := newFakeCoordinator()
	m := NewManager(coord)

	ran, err := m.RunOnce(context.Background(), Job{Name: "boom", Interval: time.Second, Run: func(context.Context) error {
		panic("kaboom")
	}})
	assert.True(t, ran)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	runs, _ := coord.LastRuns(context.Background())
	assert.NotContains(t, runs, "boom")
}

func TestRunOnce_WithoutCoordinator(t *testing.T) {
	m := NewManager(nil)
	ran, err := m.RunOnce(context.Background(), Job{Name: "local", Interval: time.Second, Run: func(context.Context) error {
		return errors.New("failed")
	}})
	assert.True(t, ran)
	assert.EqualError(t, err, "failed")

	runs, err := m.LastRuns(context.Background())
	require.NoError(t, err)
	assert.Nil(t, runs)
}

func TestManager_StartStop(t *testing.T) {
	var calls int32
	m := NewManager(nil, Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	m.Start(context.Background())
	assert.True(t, m.IsRunning())
	m.Start(context.Background())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.IsRunning())
	after := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&calls))

	m.Stop()
}
