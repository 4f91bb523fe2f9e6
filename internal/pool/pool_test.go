package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetHandler(discard.New())
}

func waitFor(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func TestPool_RunsEveryTask(t *testing.T) {
	p := New(4)
	defer p.Stop()

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() error {
			count.Add(1)
			return nil
		})
	}
	waitFor(t, p)

	assert.Equal(t, int64(100), count.Load())
	assert.True(t, p.Idle())
	assert.Equal(t, int64(0), p.Active())
	assert.Equal(t, int64(0), p.Pending())
}

func TestPool_NestedSubmissions(t *testing.T) {
	p := New(3)
	defer p.Stop()

	// Each task fans out into two more until the depth runs out, the same
	// shape as a directory walk.
	var count atomic.Int64
	var spawn func(depth int) Task
	spawn = func(depth int) Task {
		return func() error {
			count.Add(1)
			if depth == 0 {
				return nil
			}
			p.Submit(spawn(depth - 1))
			p.Submit(spawn(depth - 1))
			return nil
		}
	}
	p.Submit(spawn(8))
	waitFor(t, p)

	// 2^9 - 1 tasks in a full binary tree of depth 8.
	assert.Equal(t, int64(511), count.Load())
	assert.True(t, p.Idle())
}

func TestPool_ErrorsAndPanicsAreSwallowed(t *testing.T) {
	p := New(2)
	defer p.Stop()

	var ok atomic.Int64
	p.Submit(func() error { return errors.New("boom") })
	p.Submit(func() error { panic("kaboom") })
	for i := 0; i < 10; i++ {
		p.Submit(func() error {
			ok.Add(1)
			return nil
		})
	}
	waitFor(t, p)

	assert.Equal(t, int64(10), ok.Load())
	assert.Equal(t, int64(2), p.Failed())
}

func TestPool_ActiveCountsRunningTasks(t *testing.T) {
	p := New(2)
	defer p.Stop()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	for i := 0; i < 2; i++ {
		p.Submit(func() error {
			started.Done()
			<-release
			return nil
		})
	}
	// A third task has to wait for a free worker.
	p.Submit(func() error { return nil })

	started.Wait()
	assert.Equal(t, int64(2), p.Active())
	assert.Equal(t, int64(3), p.Pending())
	assert.False(t, p.Idle())

	close(release)
	waitFor(t, p)
	assert.Equal(t, int64(0), p.Active())
}

func TestPool_WaitHonoursContext(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	p.Submit(func() error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	waitFor(t, p)
	p.Stop()
}

func TestPool_StopAbandonsQueuedTasks(t *testing.T) {
	p := New(1)

	release := make(chan struct{})
	started := make(chan struct{})
	var ran atomic.Int64
	p.Submit(func() error {
		close(started)
		<-release
		return nil
	})
	for i := 0; i < 5; i++ {
		p.Submit(func() error {
			ran.Add(1)
			return nil
		})
	}
	<-started
	assert.Eventually(t, func() bool { return p.Queued() == 5 }, time.Second, 5*time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	p.Stop()

	assert.True(t, p.Stopped())
	assert.Equal(t, int64(0), ran.Load())

	// Submitting after stop is ignored rather than panicking.
	p.Submit(func() error {
		ran.Add(1)
		return nil
	})
	assert.Equal(t, int64(0), ran.Load())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), ErrStopped)
}

func TestNew_DefaultWorkers(t *testing.T) {
	p := New(0)
	defer p.Stop()
	assert.Equal(t, DefaultWorkers(), p.Size())
}
