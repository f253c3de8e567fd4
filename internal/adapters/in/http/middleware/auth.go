// backend/internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

// TokenVerifier は *auth.Client (Firebase) が満たす最小インターフェース。
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// context key は string を使わず、衝突回避のため独自型を使用（SA1029 対策）
type ctxKey struct{ name string }

var ctxKeyActor = ctxKey{name: "actor"}

var authLog = logger.For("middleware.auth")

// AuthMiddleware は
//
//   - Authorization: Bearer <ID_TOKEN>
//
// を検証し、editor.Actor（uid / email / roles）を context に詰めて次のハンドラへ渡す。
//
// RequiredRole が空でなければ、その role を持たない actor は 403。
type AuthMiddleware struct {
	Verifier     TokenVerifier
	RequiredRole string
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.Verifier == nil {
			writeError(w, http.StatusServiceUnavailable, "auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized: empty bearer token")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil || token == nil {
			authLog.WithError(err).WithField("path", r.URL.Path).Info("invalid token")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		actor := ActorFromToken(token)
		if actor.ID == "" {
			writeError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}
		if m.RequiredRole != "" && !actor.HasRole(m.RequiredRole) {
			writeError(w, http.StatusForbidden, "forbidden: role "+m.RequiredRole+" required")
			return
		}

		ctx := WithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromToken reads uid, email and roles from verified claims.
// roles は custom claim "roles" (配列) または "role" (文字列)。
func ActorFromToken(token *fbauth.Token) editor.Actor {
	a := editor.Actor{ID: strings.TrimSpace(token.UID)}

	if e, ok := token.Claims["email"].(string); ok {
		a.Email = strings.TrimSpace(e)
	}
	switch v := token.Claims["roles"].(type) {
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				a.Roles = append(a.Roles, strings.TrimSpace(s))
			}
		}
	case []string:
		a.Roles = append(a.Roles, v...)
	}
	if s, ok := token.Claims["role"].(string); ok && strings.TrimSpace(s) != "" {
		a.Roles = append(a.Roles, strings.TrimSpace(s))
	}
	return a
}

// WithActor stores the actor on ctx (also for log correlation).
func WithActor(ctx context.Context, a editor.Actor) context.Context {
	ctx = context.WithValue(ctx, ctxKeyActor, a)
	return context.WithValue(ctx, logger.ActorIDKey, a.ID)
}

// CurrentActor は middleware で検証された actor を返します。
func CurrentActor(r *http.Request) (editor.Actor, bool) {
	a, ok := r.Context().Value(ctxKeyActor).(editor.Actor)
	if !ok || strings.TrimSpace(a.ID) == "" {
		return editor.Actor{}, false
	}
	return a, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":` + quote(msg) + `}`))
}
