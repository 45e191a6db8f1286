package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"questboard/internal/interfaces"
	"questboard/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type ServiceLedger struct {
	container    *do.Injector
	store        interfaces.Store
	locker       interfaces.Locker
	serviceQuest *ServiceQuest
}

func NewServiceLedger(container *do.Injector) (*ServiceLedger, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[interfaces.Locker](container)
	if err != nil {
		return nil, err
	}

	serviceQuest, err := do.Invoke[*ServiceQuest](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLedger{container, store, locker, serviceQuest}, nil
}

// RemoveXP revokes the XP of a verified submission. xpEarned is kept for the audit trail.
func (service *ServiceLedger) RemoveXP(ctx context.Context, submissionID string, reason string, adminID string) (*models.UserTaskSubmission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errorx.Wrap(ErrEmptyReason, errorx.Validation)
	}

	submission, err := service.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, notFound(err, ErrSubmissionNotFound)
	}

	quest, err := service.serviceQuest.getQuestRow(ctx, submission.QuestID)
	if err != nil {
		return nil, err
	}

	allowed, err := service.serviceQuest.CanManageQuest(ctx, adminID, quest)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotProjectOwner
	}

	unlock, err := service.lockSubmission(ctx, submission.UserID, submission.TaskID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ok, err := service.store.RemoveSubmissionXP(ctx, submissionID, reason, adminID, time.Now())
	if err != nil {
		return nil, err
	}

	current, err := service.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !ok {
		if !current.Verified() {
			return nil, ErrSubmissionNotVerified
		}
		return nil, ErrXPAlreadyRemoved
	}

	log.Println("Remove XP:", "submission:", submissionID, "user:", current.UserID, "xp:", current.XPRemoved, "by:", adminID)

	if _, err := service.RecomputeUserTotal(ctx, current.UserID); err != nil {
		log.Println("[ledger] recompute total", current.UserID, err)
	}

	return current, nil
}

func (service *ServiceLedger) lockSubmission(ctx context.Context, userID string, taskID string) (func(), error) {
	unlock, err := service.locker.Lock(ctx, LockKeySubmission(userID, taskID))
	if err == nil {
		return unlock, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return nil, errors.Join(ErrSubmissionLocked, err)
}

// RecomputeUserTotal stores the sum of xpEarned - xpRemoved over the user's verified submissions on the user.
func (service *ServiceLedger) RecomputeUserTotal(ctx context.Context, userID string) (int, error) {
	return service.store.RecomputeUserTotalXP(ctx, userID)
}

// ReconcileAll rewrites the cached total of every user.
func (service *ServiceLedger) ReconcileAll(ctx context.Context) (int, error) {
	userIDs, err := service.store.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(XP_RECONCILE_CONCURRENCY)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			_, err := service.RecomputeUserTotal(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return len(userIDs), nil
}

func (service *ServiceLedger) UserSubmissions(ctx context.Context, questID string, userID string) ([]*models.UserTaskSubmission, error) {
	if _, err := service.serviceQuest.getQuestRow(ctx, questID); err != nil {
		return nil, err
	}

	return service.store.ListUserQuestSubmissions(ctx, userID, questID)
}

// QuestSubmissions lists every submission of the quest for its owner or creator.
func (service *ServiceLedger) QuestSubmissions(ctx context.Context, questID string, actorID string) ([]*models.UserTaskSubmission, error) {
	quest, err := service.serviceQuest.getQuestRow(ctx, questID)
	if err != nil {
		return nil, err
	}

	allowed, err := service.serviceQuest.CanManageQuest(ctx, actorID, quest)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotProjectOwner
	}

	return service.store.ListQuestSubmissions(ctx, questID)
}
