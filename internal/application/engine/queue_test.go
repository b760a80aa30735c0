package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherSerializesPerUser(t *testing.T) {
	d := NewDispatcher(16, time.Minute)
	defer d.Close()

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Do(context.Background(), 1, func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}()
		// 提交间隔保证到达顺序确定
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	require.Len(t, order, 8)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestDispatcherRunsUsersInParallel(t *testing.T) {
	d := NewDispatcher(4, time.Minute)
	defer d.Close()

	release := make(chan struct{})
	started := make(chan int64, 2)

	var wg sync.WaitGroup
	for _, userID := range []int64{1, 2} {
		userID := userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Do(context.Background(), userID, func() {
				started <- userID
				<-release
			})
		}()
	}

	// 两个用户的任务都进入执行态，互不阻塞
	seen := map[int64]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-started:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("tasks for distinct users did not run in parallel")
		}
	}
	assert.True(t, seen[1])
	assert.True(t, seen[2])

	close(release)
	wg.Wait()
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(1, time.Minute)
	defer d.Close()

	blocker := make(chan struct{})
	running := make(chan struct{})

	go func() {
		_ = d.Do(context.Background(), 1, func() {
			close(running)
			<-blocker
		})
	}()
	<-running

	// 占满唯一的缓冲位
	queued := make(chan error, 1)
	go func() {
		queued <- d.Do(context.Background(), 1, func() {})
	}()
	time.Sleep(100 * time.Millisecond)

	err := d.Do(context.Background(), 1, func() {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(blocker)
	assert.NoError(t, <-queued)
}

func TestDispatcherClosedRejectsNewTasks(t *testing.T) {
	d := NewDispatcher(4, time.Minute)
	d.Close()

	err := d.Do(context.Background(), 1, func() {})
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}
