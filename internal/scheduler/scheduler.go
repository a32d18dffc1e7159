// Package scheduler 提供“下一帧执行”与“延迟执行”的抽象，
// 生产环境由单一 goroutine 的 Loop 驱动，测试使用可手动推进的 Virtual 时钟。
package scheduler

import "time"

// Timer 是一次已调度的回调。Stop 返回 true 表示回调尚未执行且已被取消。
type Timer interface {
	Stop() bool
}

// Scheduler 由拥有状态的一方注入；回调总是在拥有者的执行上下文中运行。
type Scheduler interface {
	NextFrame(fn func()) Timer
	After(d time.Duration, fn func()) Timer
}

// Debouncer 在最后一次 Trigger 之后静默 d 才执行一次 fn。
// 只能在调度器的拥有者上下文中使用。
type Debouncer struct {
	sched Scheduler
	delay time.Duration
	fn    func()
	timer Timer
}

func NewDebouncer(s Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{sched: s, delay: delay, fn: fn}
}

// Trigger 重新计时。
func (d *Debouncer) Trigger() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.After(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.timer = nil
	d.fn()
}

// Pending reports whether a call is waiting for quiescence.
func (d *Debouncer) Pending() bool { return d.timer != nil }

// Flush 立即执行等待中的调用，没有等待时返回 false。
func (d *Debouncer) Flush() bool {
	if d.timer == nil || !d.timer.Stop() {
		return false
	}
	d.fire()
	return true
}

// Stop 取消等待中的调用。
func (d *Debouncer) Stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
