package httpapi

import (
	"context"
	"net/http"
	"strings"

	appAuth "github.com/wifigate/wifigate/internal/application/auth"
)

type contextKey string

const operatorContextKey = contextKey("operator")

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authSvc.Verify(extractToken(r))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), operatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := operatorFromContext(r.Context())
			if claims == nil {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
				return
			}
			if _, ok := allowed[strings.ToUpper(claims.Role)]; !ok {
				respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func operatorFromContext(ctx context.Context) *appAuth.Claims {
	if claims, ok := ctx.Value(operatorContextKey).(*appAuth.Claims); ok {
		return claims
	}
	return nil
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}
