package handler

import (
	"questboard/internal/models"
	"questboard/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupQuest struct {
	container *do.Injector
}

type projectPayload struct {
	Name string `json:"name"`
}

func (gr *groupQuest) CreateProject(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	var payload projectPayload
	if err := c.Bind(&payload); err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	project, err := serviceQuest.CreateProject(ctx, user.ID, payload.Name)
	return restAbort(c, project, err)
}

func (gr *groupQuest) ListProjectQuests(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	quests, err := serviceQuest.ListProjectQuests(c.Request().Context(), c.Param("project"))
	return restAbort(c, quests, err)
}

func (gr *groupQuest) CreateQuest(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	var payload services.QuestInput
	if err := c.Bind(&payload); err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	quest, err := serviceQuest.CreateQuest(ctx, user.ID, c.Param("project"), &payload)
	return restAbort(c, quest, err)
}

func (gr *groupQuest) Show(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	quest, err := serviceQuest.GetQuest(c.Request().Context(), c.Param("quest"))
	return restAbort(c, quest, err)
}

func (gr *groupQuest) AddTask(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	var draft models.TaskDraft
	if err := c.Bind(&draft); err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	task, err := serviceQuest.AddTask(ctx, user.ID, c.Param("quest"), &draft)
	return restAbort(c, task, err)
}

func (gr *groupQuest) Completion(c echo.Context) error {
	serviceCompletion, err := do.Invoke[*services.ServiceCompletion](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	progress, err := serviceCompletion.QuestProgress(ctx, c.Param("quest"), user.ID)
	return restAbort(c, progress, err)
}

func (gr *groupQuest) MySubmissions(c echo.Context) error {
	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return restAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return restAbort(c, nil, err)
	}

	submissions, err := serviceLedger.UserSubmissions(ctx, c.Param("quest"), user.ID)
	return restAbort(c, submissions, err)
}
