package session

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
	"github.com/infogenius-ai/chat-relay/pkg/utils"
)

// Creator 提供会话创建能力。
type Creator interface {
	CreateSession(ctx context.Context) (chat.Session, error)
}

// Handler 会话管理的HTTP处理器
type Handler struct {
	sessions Creator
	log      *logger.Logger
}

// New 创建会话处理器
func New(sessions Creator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sessions: sessions, log: log}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
}

// handleCreateSession 创建匿名会话，客户端随后通过 sessionId 或 X-Session-ID 使用它
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		h.log.Error("create session failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.log.Debug("session created", "session_id", session.ID)
	utils.RespondJSON(w, http.StatusCreated, session)
}
