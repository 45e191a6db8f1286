package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"questboard/internal/catalog"
	"questboard/internal/interfaces"
	"questboard/internal/models"
	"questboard/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

type ServiceQuest struct {
	container     *do.Injector
	store         interfaces.QuestStore
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
}

func NewServiceQuest(container *do.Injector) (*ServiceQuest, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceQuest{container, store, cache, readonlyCache}, nil
}

type QuestInput struct {
	Title            string             `json:"title"`
	Status           models.QuestStatus `json:"status"`
	TimeLimitSeconds *int64             `json:"time_limit_seconds"`
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errorx.Wrap(sentinel, errorx.NotExist)
	}
	return err
}

func uniqueSlug(name string, id string) string {
	return fmt.Sprintf("%s-%s", slug.Make(name), strings.SplitN(id, "-", 2)[0])
}

func (service *ServiceQuest) CreateProject(ctx context.Context, ownerID string, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorx.Wrap(errors.New("project name is required"), errorx.Validation)
	}

	id := uuid.NewString()
	project := &models.Project{
		ID:      id,
		Name:    name,
		Slug:    uniqueSlug(name, id),
		OwnerID: ownerID,
	}
	if err := service.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

func (service *ServiceQuest) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	callback := func() (*models.Project, error) {
		project, err := service.store.GetProject(ctx, projectID)
		if err != nil {
			return nil, notFound(err, ErrProjectNotFound)
		}
		return project, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyProject(projectID), CACHE_TTL_15_MINS, callback)
}

// CanManageQuest is true for the project owner and the quest creator.
func (service *ServiceQuest) CanManageQuest(ctx context.Context, actorID string, quest *models.Quest) (bool, error) {
	if quest.CreatorID == actorID {
		return true, nil
	}

	project, err := service.GetProject(ctx, quest.ProjectID)
	if err != nil {
		return false, err
	}

	return project.OwnerID == actorID, nil
}

func (service *ServiceQuest) CreateQuest(ctx context.Context, actorID string, projectID string, input *QuestInput) (*models.Quest, error) {
	project, err := service.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actorID {
		return nil, ErrNotProjectOwner
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errorx.Wrap(errors.New("quest title is required"), errorx.Validation)
	}
	if input.TimeLimitSeconds != nil && *input.TimeLimitSeconds <= 0 {
		return nil, errorx.Wrap(errors.New("time limit must be positive"), errorx.Validation)
	}

	status := input.Status
	switch status {
	case "":
		status = models.QuestStatusActive
	case models.QuestStatusDraft, models.QuestStatusActive, models.QuestStatusEnded:
	default:
		return nil, errorx.Wrap(fmt.Errorf("unknown quest status %q", status), errorx.Validation)
	}

	id := uuid.NewString()
	quest := &models.Quest{
		ID:               id,
		ProjectID:        projectID,
		CreatorID:        actorID,
		Title:            title,
		Slug:             uniqueSlug(title, id),
		Status:           status,
		TimeLimitSeconds: input.TimeLimitSeconds,
	}
	if err := service.store.CreateQuest(ctx, quest); err != nil {
		return nil, err
	}

	return quest, nil
}

func (service *ServiceQuest) getQuestRow(ctx context.Context, questID string) (*models.Quest, error) {
	callback := func() (*models.Quest, error) {
		quest, err := service.store.GetQuest(ctx, questID)
		if err != nil {
			return nil, notFound(err, ErrQuestNotFound)
		}
		return quest, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyQuest(questID), CACHE_TTL_5_MINS, callback)
}

// GetQuest returns the quest with its ordered tasks and total XP.
func (service *ServiceQuest) GetQuest(ctx context.Context, questID string) (*models.Quest, error) {
	quest, err := service.getQuestRow(ctx, questID)
	if err != nil {
		return nil, err
	}

	tasks, err := service.GetQuestTasks(ctx, questID)
	if err != nil {
		return nil, err
	}

	quest.Tasks = tasks
	quest.TotalXP = 0
	for _, task := range tasks {
		quest.TotalXP += task.XPReward
	}

	return quest, nil
}

func (service *ServiceQuest) ListProjectQuests(ctx context.Context, projectID string) ([]*models.Quest, error) {
	if _, err := service.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	return service.store.ListProjectQuests(ctx, projectID)
}

func (service *ServiceQuest) GetQuestTasks(ctx context.Context, questID string) ([]*models.Task, error) {
	callback := func() ([]*models.Task, error) {
		return service.store.ListQuestTasks(ctx, questID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyQuestTasks(questID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceQuest) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	callback := func() (*models.Task, error) {
		task, err := service.store.GetTask(ctx, taskID)
		if err != nil {
			return nil, notFound(err, ErrTaskNotFound)
		}
		return task, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyTask(taskID), CACHE_TTL_5_MINS, callback)
}

// AddTask validates the draft and appends it to the quest. A missing order index puts the task last.
func (service *ServiceQuest) AddTask(ctx context.Context, actorID string, questID string, draft *models.TaskDraft) (*models.Task, error) {
	quest, err := service.getQuestRow(ctx, questID)
	if err != nil {
		return nil, err
	}

	allowed, err := service.CanManageQuest(ctx, actorID, quest)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotProjectOwner
	}

	tasks, err := service.store.ListQuestTasks(ctx, questID)
	if err != nil {
		return nil, err
	}

	draft.QuestID = questID
	if draft.OrderIndex == 0 && len(tasks) > 0 {
		draft.OrderIndex = tasks[len(tasks)-1].OrderIndex + 1
	}

	task, err := catalog.Validate(draft)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Validation)
	}

	task.ID = uuid.NewString()
	if err := service.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	if err := caching.Invalidate(ctx, service.cache, DBKeyQuestTasks(questID)); err != nil {
		log.Println("[quest] invalidate tasks", questID, err)
	}

	return task, nil
}
