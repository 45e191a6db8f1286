package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"questboard/internal/models"
	"questboard/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

func Authn(verifier interface {
	Validate(token string) (*models.UserFromAuth, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			user, err := verifier.Validate(token)
			if err != nil {
				// although it's a client error, we don't want to detailed information
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidUser(ctx context.Context, container *do.Injector) (*models.User, error) {
	userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](container)
	if err != nil {
		return nil, err
	}

	return serviceUser.FindOrCreateUser(ctx, userAuth)
}

// restAbort answers the ledger conflicts and ownership refusals with their own status codes.
// Everything else goes through httpx.
func restAbort(c echo.Context, data any, err error) error {
	switch {
	case err == nil:
		return httpx.RestAbort(c, data, nil)
	case errors.Is(err, services.ErrXPAlreadyRemoved),
		errors.Is(err, services.ErrSubmissionNotVerified),
		errors.Is(err, services.ErrSubmissionLocked):
		return c.JSON(http.StatusConflict, map[string]any{"ok": false, "error": err.Error()})
	case errors.Is(err, services.ErrNotProjectOwner):
		return c.JSON(http.StatusForbidden, map[string]any{"ok": false, "error": err.Error()})
	}

	return httpx.RestAbort(c, nil, err)
}
