package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed 表示 Loop 已关闭，消息不会再被处理。
var ErrClosed = errors.New("loop closed")

// Loop 是一个单 goroutine 的邮箱：所有投递的函数按顺序在同一个 goroutine 中执行，
// 定时器到期后也把回调投递回邮箱，因此拥有者的状态无需加锁。
type Loop struct {
	mailbox chan func()
	frame   time.Duration
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewLoop 启动邮箱 goroutine；frame 是一帧的间隔。
func NewLoop(frame time.Duration, buffer int) *Loop {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	if buffer <= 0 {
		buffer = 64
	}
	l := &Loop{
		mailbox: make(chan func(), buffer),
		frame:   frame,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.mailbox:
			l.invoke(fn)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop callback panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

// Post 投递一个函数；Loop 已关闭时返回 false。不要在 Loop 自身的 goroutine 中调用。
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.mailbox <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do 投递 fn 并等待其执行完毕。
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextFrame 在一帧之后于邮箱中执行 fn。
func (l *Loop) NextFrame(fn func()) Timer {
	return l.After(l.frame, fn)
}

// After 在 d 之后于邮箱中执行 fn。
func (l *Loop) After(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.cancelled.Load() {
				return
			}
			t.fired.Store(true)
			fn()
		})
	})
	return t
}

// Close 停止邮箱 goroutine 并等待其退出；未执行的消息被丢弃。
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
	<-l.stopped
}

// Done 在 Loop 关闭后被关闭。
func (l *Loop) Done() <-chan struct{} { return l.done }

type loopTimer struct {
	timer     *time.Timer
	cancelled atomic.Bool
	fired     atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	if t.fired.Load() {
		return false
	}
	return !t.cancelled.Swap(true)
}
