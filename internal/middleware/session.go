package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie 携带匿名会话标识的 Cookie 名称。
const SessionCookie = "vt_session"

type contextKey struct{}

var sessionKey contextKey

// Session 为每个请求解析或签发不透明的会话标识，并注入请求上下文。核心服务
// 只以它为键存取章节，既不生成也不校验。
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			sessionID = cookie.Value
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   24 * 60 * 60,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID 读取请求上下文中的会话标识，未经过 Session 中间件时返回空串。
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey).(string); ok {
		return id
	}
	return ""
}
