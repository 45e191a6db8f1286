package handler

import (
	"net/http"

	"questboard/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

type removeXPPayload struct {
	Reason string `json:"reason"`
}

func (gr *groupAdmin) RemoveXP(c echo.Context) error {
	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	var payload removeXPPayload
	if err := c.Bind(&payload); err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	if _, err := serviceLedger.RemoveXP(ctx, c.Param("id"), payload.Reason, admin.ID); err != nil {
		return restAbort(c, nil, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (gr *groupAdmin) QuestSubmissions(c echo.Context) error {
	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	submissions, err := serviceLedger.QuestSubmissions(ctx, c.Param("quest"), admin.ID)
	return restAbort(c, submissions, err)
}
