package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Virtual 是测试用的确定性调度器：时间只在 Advance/Flush 时前进，
// 回调在调用 Advance/Flush 的 goroutine 中按到期时间与登记顺序执行。
type Virtual struct {
	mu    sync.Mutex
	now   time.Duration
	frame time.Duration
	seq   int
	tasks []*virtualTask
}

type virtualTask struct {
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
	ran     bool
	owner   *Virtual
}

func (t *virtualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.ran || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewVirtual 创建帧间隔为 frame 的虚拟调度器。
func NewVirtual(frame time.Duration) *Virtual {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	return &Virtual{frame: frame}
}

func (v *Virtual) NextFrame(fn func()) Timer { return v.After(v.frame, fn) }

func (v *Virtual) After(d time.Duration, fn func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &virtualTask{due: v.now + d, seq: v.seq, fn: fn, owner: v}
	v.tasks = append(v.tasks, t)
	return t
}

// Now 返回虚拟时钟自创建以来经过的时间。
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Frame 返回帧间隔。
func (v *Virtual) Frame() time.Duration { return v.frame }

// Pending 返回尚未执行也未取消的回调数。
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.tasks {
		if !t.stopped && !t.ran {
			n++
		}
	}
	return n
}

// Advance 推进时钟 d，并执行期间到期的全部回调（包括回调中新登记且同样到期的）。
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()
	for v.runNext(target, false) {
	}
	v.mu.Lock()
	v.now = target
	v.mu.Unlock()
}

// Step 推进一帧。
func (v *Virtual) Step() { v.Advance(v.frame) }

// Flush 不断执行最早到期的回调直到没有剩余，返回执行的数量。
// 超过 limit 次仍未清空时 panic，用于在测试中暴露反馈回路。
func (v *Virtual) Flush(limit int) int {
	n := 0
	for v.runNext(0, true) {
		n++
		if n > limit {
			panic("scheduler: virtual flush exceeded limit, possible feedback loop")
		}
	}
	return n
}

func (v *Virtual) runNext(target time.Duration, unbounded bool) bool {
	v.mu.Lock()
	live := v.tasks[:0]
	for _, t := range v.tasks {
		if !t.stopped && !t.ran {
			live = append(live, t)
		}
	}
	v.tasks = live
	if len(live) == 0 {
		v.mu.Unlock()
		return false
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].due != live[j].due {
			return live[i].due < live[j].due
		}
		return live[i].seq < live[j].seq
	})
	next := live[0]
	if !unbounded && next.due > target {
		v.mu.Unlock()
		return false
	}
	if next.due > v.now {
		v.now = next.due
	}
	next.ran = true
	v.mu.Unlock()
	next.fn()
	return true
}
