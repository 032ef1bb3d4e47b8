package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/infogenius-ai/chat-relay/internal/middleware"
	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/internal/service/ai"
	relayService "github.com/infogenius-ai/chat-relay/internal/service/relay"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
	"github.com/infogenius-ai/chat-relay/pkg/utils"
)

// HealthMessage 是 GET / 的固定返回内容。
const HealthMessage = "Hello from InfoGeniusAI"

// 错误码通过 X-Relay-Error 头返回给客户端。
const (
	CodeInvalidRequest = "invalid_request"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal"
)

// RateLimitedMessage 与客户端的提示文案保持一致。
const RateLimitedMessage = "Please wait a moment before sending another request."

// Relayer 是处理器依赖的中继能力。
type Relayer interface {
	Relay(ctx context.Context, sessionID, message string) (relayService.Reply, error)
}

// Handler 中继接口的 HTTP 处理器
type Handler struct {
	svc  Relayer
	gate *middleware.IntervalGate
	log  *logger.Logger
}

// New 创建中继处理器，gate 可以为 nil。
func New(svc Relayer, gate *middleware.IntervalGate, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, gate: gate, log: log}
}

// RegisterRoutes 注册根路径上的健康检查与中继路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHealth)
	r.Post("/", h.handleRelay)
}

type relayRequest struct {
	Prompt    *string `json:"prompt"`
	SessionID string  `json:"sessionId"`
}

type relayResponse struct {
	Bot string `json:"bot"`
}

// handleHealth 存活探测
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": HealthMessage})
}

// handleRelay 接收用户消息，返回格式化后的机器人回复
func (h *Handler) handleRelay(w http.ResponseWriter, r *http.Request) {
	var payload relayRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request: malformed JSON body")
		return
	}

	if payload.Prompt == nil || strings.TrimSpace(*payload.Prompt) == "" {
		h.fail(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request: prompt is required")
		return
	}

	sessionID := ResolveSessionID(r, payload.SessionID)

	if ok, _ := h.gate.Allow(sessionID); !ok {
		h.fail(w, http.StatusTooManyRequests, CodeRateLimited, RateLimitedMessage)
		return
	}

	reply, err := h.svc.Relay(r.Context(), sessionID, *payload.Prompt)
	if err != nil {
		status, code := StatusForError(err)
		if status == http.StatusBadRequest {
			h.fail(w, status, code, invalidRequestBody(err))
			return
		}
		h.log.Error("relay failed", "session_id", sessionID, "code", code, "error", err)
		h.fail(w, status, code, "Something went wrong: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, relayResponse{Bot: reply.Bot})
}

func (h *Handler) fail(w http.ResponseWriter, status int, code, body string) {
	w.Header().Set(middleware.ErrorCodeHeader, code)
	utils.RespondText(w, status, body)
}

// ResolveSessionID 优先使用请求体中的会话，其次是请求头/查询参数，
// 都没有时按客户端地址划分会话，不同客户端之间不会共享历史。
func ResolveSessionID(r *http.Request, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id := middleware.SessionID(r.Context()); id != "" {
		return id
	}
	return ClientSessionID(r.RemoteAddr)
}

// ClientSessionID 根据客户端地址（RealIP 处理后的 RemoteAddr）生成会话标识，忽略端口。
func ClientSessionID(remoteAddr string) string {
	host := strings.TrimSpace(remoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		return chat.DefaultSessionID
	}
	return "client:" + host
}

// invalidRequestBody 生成 "Invalid request: <原因>"，原因中不重复错误前缀。
func invalidRequestBody(err error) string {
	reason := strings.TrimPrefix(err.Error(), relayService.ErrInvalidRequest.Error()+": ")
	return "Invalid request: " + reason
}

// StatusForError 将中继错误映射为 HTTP 状态码与错误码。
func StatusForError(err error) (int, string) {
	if errors.Is(err, relayService.ErrInvalidRequest) {
		return http.StatusBadRequest, CodeInvalidRequest
	}
	var ce *ai.CompletionError
	if errors.As(err, &ce) {
		if ce.Code == ai.CodeQuotaExceeded {
			return http.StatusTooManyRequests, string(ce.Code)
		}
		return http.StatusInternalServerError, string(ce.Code)
	}
	return http.StatusInternalServerError, CodeInternal
}
