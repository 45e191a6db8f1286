package services

import (
	"context"

	"questboard/internal/interfaces"
	"questboard/internal/models"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type ServiceCompletion struct {
	container    *do.Injector
	store        interfaces.SubmissionStore
	serviceQuest *ServiceQuest
}

func NewServiceCompletion(container *do.Injector) (*ServiceCompletion, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	serviceQuest, err := do.Invoke[*ServiceQuest](container)
	if err != nil {
		return nil, err
	}

	return &ServiceCompletion{container, store, serviceQuest}, nil
}

// QuestProgress counts the quest's current tasks that the user has verified.
// Revoked XP still counts as completed; only EarnedXP drops.
func (service *ServiceCompletion) QuestProgress(ctx context.Context, questID string, userID string) (*models.QuestProgress, error) {
	var (
		tasks       []*models.Task
		submissions []*models.UserTaskSubmission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := service.serviceQuest.getQuestRow(gctx, questID); err != nil {
			return err
		}

		var err error
		tasks, err = service.serviceQuest.GetQuestTasks(gctx, questID)
		return err
	})
	g.Go(func() error {
		var err error
		submissions, err = service.store.ListUserQuestSubmissions(gctx, userID, questID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verified := make(map[string]*models.UserTaskSubmission, len(submissions))
	for _, submission := range submissions {
		if submission.Verified() {
			verified[submission.TaskID] = submission
		}
	}

	progress := &models.QuestProgress{QuestID: questID, UserID: userID, TotalTasks: len(tasks)}
	for _, task := range tasks {
		submission, ok := verified[task.ID]
		if !ok {
			continue
		}
		progress.CompletedTasks++
		progress.EarnedXP += submission.NetXP()
	}

	// a quest without tasks is never completed
	progress.Completed = progress.TotalTasks > 0 && progress.CompletedTasks == progress.TotalTasks
	return progress, nil
}

func (service *ServiceCompletion) IsQuestCompleted(ctx context.Context, questID string, userID string) (bool, error) {
	progress, err := service.QuestProgress(ctx, questID, userID)
	if err != nil {
		return false, err
	}

	return progress.Completed, nil
}
