package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS 按允许的来源列表设置跨域响应头；列表包含 "*" 时放行所有来源。
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", SessionHeader},
		ExposedHeaders: []string{ErrorCodeHeader},
		MaxAge:         300,
	})
}
