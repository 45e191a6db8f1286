package handler

import (
	"questboard/internal/models"
	"questboard/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupVerify struct {
	container *do.Injector
}

func (gr *groupVerify) Verify(c echo.Context) error {
	serviceVerification, err := do.Invoke[*services.ServiceVerification](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	var claim models.Claim
	if err := c.Bind(&claim); err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}
	if claim.TaskID == "" {
		return restAbort(c, nil, errorx.Wrap(services.ErrTaskNotFound, errorx.Validation))
	}

	identity, err := serviceUser.ResolveIdentity(ctx, user.ID)
	if err != nil {
		return restAbort(c, nil, err)
	}

	outcome, err := serviceVerification.Attempt(ctx, identity, &claim)
	if err != nil {
		return restAbort(c, nil, err)
	}

	return restAbort(c, outcome, nil)
}
