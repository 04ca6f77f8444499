package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"paperdesk.org/internal/auth"
	"paperdesk.org/internal/docs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

type actorCtxKey struct{}

func contextWithActor(ctx context.Context, actor docs.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

func actorFromContext(ctx context.Context) (docs.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(docs.Actor)
	return actor, ok
}

// withAuth resolves the bearer token to a stored actor. The token carries
// only the user id; roles always come from storage so revocation takes
// effect on the next request.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			unauthorized(w, r, "invalid token")
			return
		}

		actor, err := a.store.GetActor(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, docs.ErrStoreNotFound) {
				unauthorized(w, r, "unknown subject")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithUser(r.Context(), actor.ID)
		ctx = contextWithActor(ctx, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="paperdesk"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
