package controllers

import (
	"net/http"

	"github.com/lumina-commerce/storefront-backend/api/middleware"
	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/api/validators"
	"github.com/lumina-commerce/storefront-backend/internal/auth"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

type refreshPayload struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthLogin exchanges credentials for a token pair and binds the shopper's
// identity to the device session, which runs the guest merge before the
// response is written.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if sess := middleware.SessionFromContext(ctx); sess != nil {
			sess.SignIn(result.UserID)
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthRefresh rotates the refresh token and mints a fresh access token.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body refreshPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Refresh(ctx, body.AccessToken, body.RefreshToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the caller's server session and drops the device
// session back to guest. Pending debounced writes are flushed before the
// identity flips, so nothing signed-in is lost.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		accessID := middleware.AccessIDFromContext(ctx)
		if accessID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}

		if err := svc.Logout(ctx, accessID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if sess := middleware.SessionFromContext(ctx); sess != nil {
			sess.SignOut()
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
