package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"clubnet/internal/domain"
)

type ctxKey int

const userIDKey ctxKey = iota

// ErrNoUser возвращается, когда в контексте запроса нет пользователя.
var ErrNoUser = errors.New("пользователь не аутентифицирован")

// AuthMiddleware резолвит bearer-токен через шлюз идентификации
// и кладёт идентификатор пользователя в контекст запроса.
func AuthMiddleware(identity domain.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, errors.New("токен отсутствует"))
				return
			}
			userID, err := identity.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, errors.New("токен недействителен"))
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достаёт идентификатор пользователя из контекста запроса.
func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}
