package middleware

import (
	"net/http"
	"strings"

	"github.com/lromeroa/grocerly-backend/api/responses"
	pkgauth "github.com/lromeroa/grocerly-backend/pkg/auth"
	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/logger"
)

// Auth validates a bearer token, restricts it to the allowed actor types and
// seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger, allowed ...enums.ActorType) func(http.Handler) http.Handler {
	allowedSet := map[enums.ActorType]struct{}{}
	for _, actorType := range allowed {
		allowedSet[actorType] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if len(allowedSet) > 0 {
				if _, ok := allowedSet[claims.ActorType]; !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "access denied"))
					return
				}
			}

			ctx := WithActor(r.Context(), claims.ActorID.String(), string(claims.ActorType))
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"actor_id":   claims.ActorID.String(),
					"actor_role": string(claims.ActorType),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
