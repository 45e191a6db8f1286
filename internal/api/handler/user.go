package handler

import (
	"questboard/internal/models"
	"questboard/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupUser struct {
	container *do.Injector
}

// Me answers the user with a refreshed session token and the linked accounts.
func (gr *groupUser) Me(c echo.Context) error {
	ctx := c.Request().Context()

	// find user in system. If not create new user
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	authentication, err := do.Invoke[*services.Authentication](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	identity, err := serviceUser.ResolveIdentity(ctx, user.ID)
	if err != nil {
		return restAbort(c, nil, err)
	}

	token, err := authentication.CreateToken(&models.UserFromAuth{ID: user.ID, Username: user.Username})
	if err != nil {
		return restAbort(c, nil, err)
	}

	return restAbort(c, map[string]interface{}{
		"token":           token,
		"user":            user,
		"linked_accounts": identity.LinkedAccounts,
	}, nil)
}

func (gr *groupUser) XP(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	total, err := serviceLedger.RecomputeUserTotal(ctx, user.ID)
	if err != nil {
		return restAbort(c, nil, err)
	}

	return restAbort(c, models.TotalXP{UserID: user.ID, TotalXP: total}, nil)
}

type connectTelegramPayload struct {
	InitData string `json:"init_data"`
}

func (gr *groupUser) ConnectTelegram(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload connectTelegramPayload
	if err := c.Bind(&payload); err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	account, err := serviceUser.LinkTelegram(ctx, user.ID, payload.InitData)
	return restAbort(c, account, err)
}
