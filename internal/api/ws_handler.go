package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"fitResume/internal/session"
	"fitResume/internal/worker"
)

const (
	wsWriteWait    = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// Subscriber 订阅 Redis 频道，*redis.Client 满足该接口。
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// WsHandler 把会话状态变化与导出通知推送给前端。
type WsHandler struct {
	hub            *session.Hub
	notifier       Subscriber
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// wsMessage 是推送给客户端的消息信封，type 为 state 或 export。
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(hub *session.Hub, notifier Subscriber, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		hub:            hub,
		notifier:       notifier,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

// HandleConnection 升级连接，先推送当前状态，之后推送每一次状态变化。
// 带 resume_id 查询参数时同时转发该简历的导出通知。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	id := c.Param("id")
	var resumeID uint
	if raw := c.Query("resume_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || v == 0 {
			BadRequest(c, "invalid resume id")
			return
		}
		resumeID = uint(v)
	}

	states, unsubscribe, err := h.hub.Subscribe(id)
	if err != nil {
		NotFound(c, "session not found")
		return
	}
	defer unsubscribe()

	initial, err := h.hub.State(c.Request.Context(), id)
	if err != nil {
		NotFound(c, "session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.logger.With(
		slog.String("session_id", id),
		slog.String("client_ip", c.ClientIP()),
	)

	errCh := make(chan error, 1)
	go h.readLoop(conn, errCh, cancel)

	var notifications <-chan *redis.Message
	if resumeID != 0 && h.notifier != nil {
		channel := worker.NotifyChannel(resumeID)
		pubsub := h.notifier.Subscribe(ctx, channel)
		defer pubsub.Close()
		notifications = pubsub.Channel()
		log.Info("subscribed to redis channel", slog.String("channel", channel))
	}

	err = h.writeLoop(ctx, conn, initial, states, notifications)
	select {
	case readErr := <-errCh:
		if err == nil {
			err = readErr
		}
	default:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// readLoop 只用于检测客户端断开，客户端通过 HTTP 接口发起修改。
func (h *WsHandler) readLoop(conn *websocket.Conn, errCh chan<- error, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			errCh <- fmt.Errorf("read message: %w", err)
			return
		}
	}
}

func (h *WsHandler) writeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	initial session.State,
	states <-chan session.State,
	notifications <-chan *redis.Message,
) error {
	if err := writeJSON(conn, wsMessage{Type: "state", Data: initial}); err != nil {
		return err
	}
	last := initial.Version

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-states:
			if !ok {
				writeClose(conn, websocket.CloseGoingAway, "session closed")
				return nil
			}
			if st.Version <= last {
				continue
			}
			last = st.Version
			if err := writeJSON(conn, wsMessage{Type: "state", Data: st}); err != nil {
				return err
			}
		case msg, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			if err := writeJSON(conn, wsMessage{Type: "export", Data: json.RawMessage(msg.Payload)}); err != nil {
				return err
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(wsWriteWait)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}
