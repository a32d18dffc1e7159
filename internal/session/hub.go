package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fitResume/internal/camera"
	"fitResume/internal/density"
	"fitResume/internal/drafts"
	"fitResume/internal/fit"
	"fitResume/internal/metrics"
	"fitResume/internal/resume"
	"fitResume/internal/scheduler"
)

// sessionCloseTimeout 限制关闭会话时写出草稿的时间。
const sessionCloseTimeout = 10 * time.Second

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrHubClosed       = errors.New("session hub closed")
)

// StateChannel 返回会话状态在 Redis 上的发布频道。
func StateChannel(id string) string { return "session_state:" + id }

// Publisher 把状态变化广播到进程外，*redis.Client 满足该接口。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// HubConfig 描述 Hub 创建会话所需的共享依赖。
type HubConfig struct {
	Ladder           *density.Ladder
	Prober           fit.Prober
	Camera           camera.Camera
	Measurer         Measurer
	Store            drafts.Store
	FrameInterval    time.Duration
	AutosaveDebounce time.Duration
	IdleTTL          time.Duration
	Publisher        Publisher
	Logger           *slog.Logger
}

// Hub 管理所有存活的会话：每个会话运行在自己的 scheduler.Loop 上，
// 外部请求投递到对应的 Loop 执行并等待结果。
type Hub struct {
	cfg    HubConfig
	logger *slog.Logger
	outbox chan published

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

type entry struct {
	id       string
	loop     *scheduler.Loop
	sess     *Session
	lastUsed time.Time
	subs     map[int]chan State
	nextSub  int
}

type published struct {
	id    string
	state State
}

// NewHub 创建 Hub。需要调用 Run 才会回收空闲会话并向 Publisher 广播。
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		outbox:   make(chan published, 256),
		sessions: make(map[string]*entry),
	}
}

// CreateRequest 描述新会话的初始文档。Document 为 nil 时从草稿存储中恢复；
// Owner 用于草稿键的命名空间，为空时使用会话 ID。
type CreateRequest struct {
	Document *resume.Document
	Owner    string
}

// Created 是 Create 的结果。
type Created struct {
	State  State
	Source drafts.Source
}

// Create 创建并启动一个会话。
func (h *Hub) Create(ctx context.Context, req CreateRequest) (Created, error) {
	id := uuid.NewString()
	owner := req.Owner
	if owner == "" {
		owner = id
	}

	var doc resume.Document
	source := drafts.SourceBlank
	switch {
	case req.Document != nil:
		doc = req.Document.Clone()
	case h.cfg.Store != nil:
		seeded := drafts.Seed(ctx, h.cfg.Store, owner, h.logger)
		doc, source = seeded.Document, seeded.Source
	default:
		doc = resume.New()
	}

	loop := scheduler.NewLoop(h.cfg.FrameInterval, 64)
	e := &entry{id: id, loop: loop, lastUsed: time.Now(), subs: make(map[int]chan State)}

	var created State
	err := loop.Do(ctx, func() {
		var saver *drafts.Autosaver
		if h.cfg.Store != nil {
			saver = drafts.NewAutosaver(loop, h.cfg.Store, drafts.Namespaced(owner, drafts.DraftKey), h.cfg.AutosaveDebounce, h.logger)
		}
		e.sess = New(Options{
			ID:        id,
			Ladder:    h.cfg.Ladder,
			Prober:    h.cfg.Prober,
			Camera:    h.cfg.Camera,
			Measurer:  h.cfg.Measurer,
			Scheduler: loop,
			Autosaver: saver,
			Logger:    h.logger,
			OnChange:  func(st State) { h.broadcast(e, st) },
		}, doc)
		created = e.sess.State()
	})
	if err != nil {
		loop.Close()
		return Created{}, fmt.Errorf("start session: %w", err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.stop(e)
		return Created{}, ErrHubClosed
	}
	h.sessions[id] = e
	h.mu.Unlock()

	metrics.SessionOpened()
	h.logger.Info("session created", slog.String("session_id", id), slog.String("source", string(source)))
	return Created{State: created, Source: source}, nil
}

func (h *Hub) lookup(id string) (*entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = time.Now()
	return e, nil
}

// Do 在会话的 Loop 上执行 fn，并返回执行后的状态。
func (h *Hub) Do(ctx context.Context, id string, fn func(*Session) error) (State, error) {
	e, err := h.lookup(id)
	if err != nil {
		return State{}, err
	}
	var (
		st    State
		fnErr error
	)
	err = e.loop.Do(ctx, func() {
		if fn != nil {
			fnErr = fn(e.sess)
		}
		st = e.sess.State()
	})
	if errors.Is(err, scheduler.ErrClosed) {
		return State{}, ErrSessionNotFound
	}
	if err != nil {
		return State{}, err
	}
	return st, fnErr
}

// State 返回会话当前状态。
func (h *Hub) State(ctx context.Context, id string) (State, error) {
	return h.Do(ctx, id, nil)
}

// Document 返回会话当前文档。
func (h *Hub) Document(ctx context.Context, id string) (resume.Document, error) {
	var doc resume.Document
	_, err := h.Do(ctx, id, func(s *Session) error {
		doc = s.Document()
		return nil
	})
	return doc, err
}

// Subscribe 返回状态变化的通知通道。消费过慢时旧状态会被丢弃，只保证最终收到较新的状态。
func (h *Hub) Subscribe(id string) (<-chan State, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	ch := make(chan State, 8)
	key := e.nextSub
	e.nextSub++
	e.subs[key] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := e.subs[key]; ok {
			delete(e.subs, key)
			close(c)
		}
	}
	return ch, cancel, nil
}

// broadcast 运行在会话的 Loop 上，不能阻塞。
func (h *Hub) broadcast(e *entry, st State) {
	h.mu.Lock()
	for _, ch := range e.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
	h.mu.Unlock()

	if h.cfg.Publisher == nil {
		return
	}
	select {
	case h.outbox <- published{id: e.id, state: st}:
	default:
		h.logger.Warn("session publish queue full, dropping state", slog.String("session_id", e.id))
	}
}

// Close 关闭会话：写出等待中的草稿并停止其 Loop。
func (h *Hub) Close(ctx context.Context, id string) error {
	h.mu.Lock()
	e, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	// 调用方的 ctx 可能已经取消（例如关停时），草稿仍要写出。
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCloseTimeout)
	defer cancel()
	if err := e.loop.Do(closeCtx, func() { e.sess.Close() }); err != nil {
		h.logger.Warn("close session", slog.String("session_id", id), slog.String("error", err.Error()))
	}
	h.stop(e)
	return nil
}

func (h *Hub) stop(e *entry) {
	e.loop.Close()
	h.mu.Lock()
	for key, ch := range e.subs {
		delete(e.subs, key)
		close(ch)
	}
	h.mu.Unlock()
	if e.sess != nil {
		metrics.SessionClosed()
	}
}

// Len 返回存活会话数。
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Reap 关闭空闲超过 IdleTTL 且没有订阅者的会话，返回关闭的数量。
func (h *Hub) Reap(ctx context.Context, now time.Time) int {
	h.mu.Lock()
	var idle []string
	for id, e := range h.sessions {
		if len(e.subs) == 0 && now.Sub(e.lastUsed) >= h.cfg.IdleTTL {
			idle = append(idle, id)
		}
	}
	h.mu.Unlock()

	for _, id := range idle {
		if err := h.Close(ctx, id); err == nil {
			h.logger.Info("idle session closed", slog.String("session_id", id))
		}
	}
	return len(idle)
}

// Run 周期性回收空闲会话并把状态发布到 Publisher，ctx 结束时关闭所有会话。
func (h *Hub) Run(ctx context.Context) error {
	interval := h.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Shutdown(context.Background())
			return nil
		case now := <-ticker.C:
			h.Reap(ctx, now)
		case msg := <-h.outbox:
			h.publish(ctx, msg)
		}
	}
}

func (h *Hub) publish(ctx context.Context, msg published) {
	payload, err := json.Marshal(msg.state)
	if err != nil {
		h.logger.Error("marshal session state", slog.String("error", err.Error()))
		return
	}
	if err := h.cfg.Publisher.Publish(ctx, StateChannel(msg.id), payload).Err(); err != nil {
		h.logger.Warn("publish session state", slog.String("session_id", msg.id), slog.String("error", err.Error()))
	}
}

// Shutdown 关闭所有会话，之后 Create 返回 ErrHubClosed。
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	h.closed = true
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		_ = h.Close(ctx, id)
	}
}
