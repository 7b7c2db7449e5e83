package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

const maxCartSessionLen = 64

// CartSession reads the anonymous cart token for requests without a user.
// Anonymous callers lacking a token get a fresh one, echoed in the response
// header so the client can keep it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimSpace(r.Header.Get(cart.SessionHeader))
			if len(token) > maxCartSessionLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session token too long"))
				return
			}
			if token == "" {
				token = cart.NewSessionToken()
			}
			w.Header().Set(cart.SessionHeader, token)

			ctx := WithCartSession(r.Context(), token)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
