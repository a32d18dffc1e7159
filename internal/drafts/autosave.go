package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fitResume/internal/resume"
	"fitResume/internal/scheduler"
)

// DefaultDebounce 是编辑停止后触发保存的静默时间。
const DefaultDebounce = 500 * time.Millisecond

const saveTimeout = 5 * time.Second

// Autosaver 在文档静默一段时间后把最新内容写入 Store。
// 它只能在调度器的拥有者上下文中使用；保存失败只通过 OnError 与日志报告，不回滚内存中的文档。
// 调度器能跨 goroutine 投递回调时（scheduler.Loop），写入在后台进行，结果再投递回拥有者；
// 同一时刻最多一个写入在途，期间到期的保存等它结束后再写最新内容。
type Autosaver struct {
	store    Store
	key      string
	logger   *slog.Logger
	debounce *scheduler.Debouncer
	pending  *resume.Document

	post     func(fn func()) bool
	inflight chan struct{}
	gen      int

	OnError func(error)
	OnSaved func()
}

type poster interface {
	Post(fn func()) bool
}

// NewAutosaver 返回绑定到 key 的 Autosaver。
func NewAutosaver(s scheduler.Scheduler, store Store, key string, delay time.Duration, logger *slog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Autosaver{store: store, key: key, logger: logger}
	if p, ok := s.(poster); ok {
		a.post = p.Post
	}
	a.debounce = scheduler.NewDebouncer(s, delay, a.save)
	return a
}

// Key 返回保存使用的键。
func (a *Autosaver) Key() string { return a.key }

// Schedule 记录最新文档并重新计时。
func (a *Autosaver) Schedule(doc resume.Document) {
	clone := doc.Clone()
	a.pending = &clone
	a.debounce.Trigger()
}

// Pending 报告是否有尚未写入的修改。
func (a *Autosaver) Pending() bool { return a.debounce.Pending() || a.pending != nil }

// Flush 等待在途的写入结束，然后同步写入等待中的修改。没有等待的修改时返回 false。
func (a *Autosaver) Flush() bool {
	a.debounce.Stop()
	if a.inflight != nil {
		<-a.inflight
		a.inflight = nil
		a.gen++
	}
	doc := a.pending
	a.pending = nil
	if doc == nil {
		return false
	}
	a.report(a.write(*doc))
	return true
}

// Stop 丢弃等待中的修改。
func (a *Autosaver) Stop() {
	a.debounce.Stop()
	a.pending = nil
}

func (a *Autosaver) save() {
	doc := a.pending
	if doc == nil {
		return
	}
	if a.post == nil {
		a.pending = nil
		a.report(a.write(*doc))
		return
	}
	if a.inflight != nil {
		return
	}
	a.pending = nil
	done := make(chan struct{})
	a.inflight = done
	gen := a.gen
	go func() {
		err := a.write(*doc)
		close(done)
		a.post(func() {
			if gen != a.gen {
				return
			}
			a.inflight = nil
			a.report(err)
			if a.pending != nil && !a.debounce.Pending() {
				a.save()
			}
		})
	}()
}

func (a *Autosaver) report(err error) {
	if err != nil {
		a.logger.Warn("autosave draft", slog.String("key", a.key), slog.String("error", err.Error()))
		if a.OnError != nil {
			a.OnError(err)
		}
		return
	}
	if a.OnSaved != nil {
		a.OnSaved()
	}
}

func (a *Autosaver) write(doc resume.Document) error {
	doc.Normalize(time.Now())
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return a.store.Save(ctx, a.key, data)
}
