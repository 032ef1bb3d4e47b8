package relay

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/infogenius-ai/chat-relay/internal/middleware"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// WebSocketHandler 在单个连接上承载多轮中继，连接即会话。
type WebSocketHandler struct {
	svc         Relayer
	gate        *middleware.IntervalGate
	log         *logger.Logger
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(svc Relayer, gate *middleware.IntervalGate, log *logger.Logger) *WebSocketHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WebSocketHandler{
		svc:         svc,
		gate:        gate,
		log:         log.With("component", "websocket"),
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Prompt string `json:"prompt"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Bot       string `json:"bot,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.log.Info("connection opened", "session_id", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: "connected", SessionID: sessionID})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("read error", "session_id", sessionID, "error", err)
			}
			return
		}

		h.handleMessage(ctx, conn, sessionID, msg)
		// pong 只在读取时处理，中继期间截止时间可能已过
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg inboundMessage) {
	if strings.TrimSpace(msg.Prompt) == "" {
		h.sendError(conn, sessionID, CodeInvalidRequest, "Invalid request: prompt is required")
		return
	}

	if ok, _ := h.gate.Allow(sessionID); !ok {
		h.sendError(conn, sessionID, CodeRateLimited, RateLimitedMessage)
		return
	}

	reply, err := h.svc.Relay(ctx, sessionID, msg.Prompt)
	if err != nil {
		_, code := StatusForError(err)
		h.log.Error("relay failed", "session_id", sessionID, "code", code, "error", err)
		h.sendError(conn, sessionID, code, "Something went wrong: "+err.Error())
		return
	}

	h.send(conn, outgoingMessage{Type: "bot", SessionID: sessionID, Bot: reply.Bot})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Warn("write failed", "type", msg.Type, "error", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, sessionID, code, message string) {
	h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Code: code, Message: message})
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
