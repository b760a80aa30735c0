package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kaushal-ai-api/pkg/logger"
)

// ErrQueueFull 用户队列已满（有界队列保护：生成调用耗时长，不允许无限积压）
var ErrQueueFull = fmt.Errorf("user queue is full")

// ErrDispatcherClosed 调度器已关闭
var ErrDispatcherClosed = fmt.Errorf("dispatcher is closed")

type task struct {
	run  func()
	done chan struct{}
}

type userQueue struct {
	ch     chan task
	closed bool
}

// Dispatcher 按用户键串行化的任务调度器。
// 同一用户的轮次按到达顺序逐个执行（不抢占在途轮次），不同用户并行互不影响。
type Dispatcher struct {
	mu      sync.Mutex
	queues  map[int64]*userQueue
	buffer  int
	idle    time.Duration
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewDispatcher 创建调度器。buffer 是单用户待处理上限，idle 是空闲队列回收时间。
func NewDispatcher(buffer int, idle time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 8
	}
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &Dispatcher{
		queues: make(map[int64]*userQueue),
		buffer: buffer,
		idle:   idle,
		stopCh: make(chan struct{}),
	}
}

// Do 在用户的串行队列中执行 fn，并等待其完成。
// 队列满时立即返回 ErrQueueFull，由调用方向用户反馈稍后重试。
func (d *Dispatcher) Do(ctx context.Context, userID int64, fn func()) error {
	t := task{run: fn, done: make(chan struct{})}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	q := d.queues[userID]
	if q == nil || q.closed {
		q = &userQueue{ch: make(chan task, d.buffer)}
		d.queues[userID] = q
		d.wg.Add(1)
		go d.loop(q, userID)
	}
	select {
	case q.ch <- t:
		d.mu.Unlock()
	default:
		d.mu.Unlock()
		return ErrQueueFull
	}

	// 即使调用方超时离开，轮次也会在队列内完成，避免状态写一半。
	<-t.done
	return nil
}

// Close 停止接收新任务并等待在途任务完成
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) loop(q *userQueue, userID int64) {
	defer d.wg.Done()

	timer := time.NewTimer(d.idle)
	defer timer.Stop()

	for {
		select {
		case t := <-q.ch:
			t.run()
			close(t.done)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d.idle)

		case <-timer.C:
			d.mu.Lock()
			if len(q.ch) == 0 {
				q.closed = true
				delete(d.queues, userID)
				d.mu.Unlock()
				logger.Debug(context.Background(), "idle user queue reclaimed", "user_id", userID)
				return
			}
			d.mu.Unlock()
			timer.Reset(d.idle)

		case <-d.stopCh:
			// 排空剩余任务后退出
			d.mu.Lock()
			q.closed = true
			delete(d.queues, userID)
			d.mu.Unlock()
			for {
				select {
				case t := <-q.ch:
					t.run()
					close(t.done)
				default:
					return
				}
			}
		}
	}
}
