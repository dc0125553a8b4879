package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userIDCtxKey   = contextKey("user_id")
	userRoleCtxKey = contextKey("user_role")
)

// Claims is the token payload issued by the user service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey).(string)
	return id, ok && id != ""
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(userRoleCtxKey).(string)
	return role
}

// JWTAuth rejects requests without a valid HMAC-signed bearer token and
// stores the caller's id and role in the request context.
func JWTAuth(jwtSecret string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid || claims.UserID == "" {
				log.Warnf("JWTAuth: rejected token for %s %s: %v", r.Method, r.URL.Path, err)
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userIDCtxKey, claims.UserID)
			ctx = context.WithValue(ctx, userRoleCtxKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				writeMessage(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Observe logs every request and records its latency under the matched
// route pattern, not the raw path.
func Observe(log logger.Logger, m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			code := strconv.Itoa(status)

			m.HTTPRequestDuration.WithLabelValues(r.Method, route, code).Observe(elapsed.Seconds())
			if status >= http.StatusBadRequest {
				m.HTTPRequestErrorsTotal.WithLabelValues(route, code).Inc()
			}
			log.Infof("HTTP %s %s -> %d (%s) request_id=%s", r.Method, r.URL.Path, status, elapsed, chimw.GetReqID(r.Context()))
		})
	}
}
