package middleware

import (
	"net/http"

	"resto-be/internal/auth"
	"resto-be/internal/logger"
	"resto-be/internal/user"
	"resto-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware resolves the caller. Requests without a token pass through
// as anonymous; a token that fails verification is rejected with 401.
// The ordering session id is attached to the context either way.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sid := auth.ExtractSessionID(r); sid != "" {
				ctx = utils.WithSessionID(ctx, sid)
			}

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := user.ParseJWT(secret, tokenStr)
			if err != nil {
				logger.FromCtx(ctx).Warn("rejected access token",
					zap.String("layer", "middleware"),
					zap.Error(err),
				)
				utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx = utils.SetUserContext(ctx, claims.UserID, claims.Email, claims.Role)
			ctx = logger.WithFields(ctx,
				zap.Uint("user_id", claims.UserID),
				zap.String("role", claims.Role),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
