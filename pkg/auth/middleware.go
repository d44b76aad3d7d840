package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "paradisian/pkg/errors"
	httputil "paradisian/pkg/http"
	"paradisian/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type contextKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}

// Middleware attaches the caller identity when the request carries a bearer
// token. Requests without one pass through anonymously; a bad token is
// rejected outright.
func Middleware(tokens *TokenManager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeError(w, log, apperrors.Unauthorized("Authorization header must use the Bearer scheme"))
				return
			}

			id, err := tokens.Parse(raw)
			if err != nil {
				log.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
				writeError(w, log, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Authenticated rejects anonymous callers.
func Authenticated(log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := FromContext(r.Context()); !ok {
			writeError(w, log, apperrors.Unauthorized("Authentication required"))
			return
		}
		next(w, r, ps)
	}
}

// AdminOnly rejects callers without the ADMIN role.
func AdminOnly(log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return Authenticated(log, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if id, _ := FromContext(r.Context()); !id.IsAdmin() {
			writeError(w, log, apperrors.Forbidden("Administrator role required"))
			return
		}
		next(w, r, ps)
	})
}

func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response", "operation", "WriteError", "error", writeErr)
	}
}
