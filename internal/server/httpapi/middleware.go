package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// authMiddleware validates the bearer access token and stashes the user id
// in the request context. The verification surface never passes through
// here, it stays anonymous.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(header, common.BearerPrefix), s.users.Secret())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
