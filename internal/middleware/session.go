package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	// SessionHeader 携带客户端会话标识。
	SessionHeader = "X-Session-ID"
	// ErrorCodeHeader 携带结构化的中继错误码。
	ErrorCodeHeader = "X-Relay-Error"
)

type sessionKey struct{}

// Session 从请求头或查询参数中解析会话标识并写入 context。
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" {
			id = strings.TrimSpace(r.URL.Query().Get("sessionId"))
		}
		if id != "" {
			r = r.WithContext(WithSessionID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WithSessionID 返回携带会话标识的 context。
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID 读取 context 中的会话标识，不存在时返回空字符串。
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
