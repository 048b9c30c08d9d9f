package middleware

import (
	"context"
	"net/http"

	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/internal/shopper"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

type sessionCtxKey struct{}

// ShopperSession resolves the device's shopper session from the
// X-Session-Id header, creating and hydrating it on first sight.
func ShopperSession(manager *shopper.Manager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(sessionIDHeader)
			if sessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Session-Id header is required"))
				return
			}

			sess, err := manager.GetOrCreate(r.Context(), sessionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the shopper session resolved by
// ShopperSession, or nil when the middleware did not run.
func SessionFromContext(ctx context.Context) *shopper.Session {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(sessionCtxKey{}).(*shopper.Session); ok {
		return s
	}
	return nil
}
