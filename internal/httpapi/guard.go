package httpapi

import (
	"context"
	"net/http"
	"strings"

	"blog-api/internal/auth"
	"blog-api/internal/obs"

	"go.uber.org/zap"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

func principalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	return p, ok
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively; an empty token is treated as absent.
func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "Could not validate credentials")
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return s.guard(auth.PrincipalUser, next)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.guard(auth.PrincipalAdmin, next)
}

func (s *Server) guard(pk auth.PrincipalKind, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := obs.WithTrace(r.Context(), s.log)

		token, ok := bearerToken(r)
		if !ok {
			obs.ObserveAuth(pk.String(), "missing_token")
			log.Warn("Token validation failed for a request.", zap.String("reason", "missing bearer token"))
			writeUnauthorized(w)
			return
		}

		p, err := s.resolver.Resolve(r.Context(), token, auth.KindAccess, pk, s.now())
		if err != nil {
			if auth.IsUnauthorized(err) {
				obs.ObserveAuth(pk.String(), "rejected")
				log.Warn("Token validation failed for a request.", zap.Error(err))
				writeUnauthorized(w)
				return
			}
			obs.ObserveAuth(pk.String(), "error")
			log.Error("principal lookup failed", zap.Error(err))
			writeInternal(w)
			return
		}

		obs.ObserveAuth(pk.String(), "ok")
		log.Debug("authenticated", zap.String("principal", pk.String()), zap.String("username", p.Username()))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPrincipal, p)))
	})
}
