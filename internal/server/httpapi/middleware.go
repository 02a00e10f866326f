package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// userIDFromContext returns the authenticated user ID placed there by the
// access token middleware.
func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// withAuth resolves the access token header into a user ID in the request
// context. An expired token gets the exact "token expired" error body the
// client's refresh logic keys on.
func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		accessToken := r.Header.Get(common.AccessTokenHeaderName)
		if accessToken == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, common.ErrTokenExpired.Error())
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}
