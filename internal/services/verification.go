package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"questboard/internal/interfaces"
	"questboard/internal/models"
	"questboard/internal/verifier"

	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	tklimiter "github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/samber/do"
)

// SubmissionOutcome is the answer to one verification attempt. Submission is the row after the attempt.
type SubmissionOutcome struct {
	Success        bool                       `json:"success"`
	Detail         verifier.Detail            `json:"detail"`
	Error          string                     `json:"error,omitempty"`
	Cached         bool                       `json:"cached"`
	QuestCompleted bool                       `json:"quest_completed"`
	Submission     *models.UserTaskSubmission `json:"submission"`
}

type ServiceVerification struct {
	container         *do.Injector
	store             interfaces.Store
	locker            interfaces.Locker
	limiter           interfaces.Limiter
	registry          *verifier.Registry
	serviceQuest      *ServiceQuest
	serviceConfig     *ServiceConfig
	serviceLedger     *ServiceLedger
	serviceCompletion *ServiceCompletion
}

func NewServiceVerification(container *do.Injector) (*ServiceVerification, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[interfaces.Locker](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	registry, err := do.Invoke[*verifier.Registry](container)
	if err != nil {
		return nil, err
	}

	serviceQuest, err := do.Invoke[*ServiceQuest](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceLedger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	serviceCompletion, err := do.Invoke[*ServiceCompletion](container)
	if err != nil {
		return nil, err
	}

	return &ServiceVerification{
		container:         container,
		store:             store,
		locker:            locker,
		limiter:           limiter,
		registry:          registry,
		serviceQuest:      serviceQuest,
		serviceConfig:     serviceConfig,
		serviceLedger:     serviceLedger,
		serviceCompletion: serviceCompletion,
	}, nil
}

// Attempt runs the task's strategy for the user's claim and records the outcome on the
// (user, task) submission row. Attempts on the same pair are serialized; once the row is
// verified later attempts answer the stored outcome without calling the strategy.
//
// Only a missing task, missing user, mismatched request or missing strategy is returned as an
// error. Every strategy verdict, including platform failures, is a SubmissionOutcome.
func (service *ServiceVerification) Attempt(ctx context.Context, user *models.UserIdentity, claim *models.Claim) (*SubmissionOutcome, error) {
	if claim.UserID != "" && claim.UserID != user.ID {
		return nil, errorx.Wrap(ErrUserMismatch, errorx.Invalid)
	}

	task, err := service.serviceQuest.GetTask(ctx, claim.TaskID)
	if err != nil {
		return nil, err
	}

	if _, err := service.store.GetUser(ctx, user.ID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	kind := task.VerificationType()
	if claim.Type == "" {
		claim.Type = kind
	}
	if claim.Type != kind {
		return nil, errorx.Wrap(fmt.Errorf("%w: %s for %s task", ErrTypeMismatch, claim.Type, kind), errorx.Validation)
	}

	strategy, ok := service.registry.Lookup(kind)
	if !ok {
		return nil, errorx.Wrap(fmt.Errorf("%w: %q", ErrNoStrategy, kind), errorx.Invalid)
	}

	// fast path without the lock
	existing, err := service.store.GetUserTaskSubmission(ctx, user.ID, task.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil && existing.Verified() {
		return service.cachedOutcome(ctx, existing)
	}

	quest, err := service.serviceQuest.getQuestRow(ctx, task.QuestID)
	if err != nil {
		return nil, err
	}
	if quest.Ended(time.Now()) {
		return nil, errorx.Wrap(ErrQuestEnded, errorx.Validation)
	}

	unlock, err := service.serviceLedger.lockSubmission(ctx, user.ID, task.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	submission, err := service.store.FindOrCreateSubmission(ctx, &models.UserTaskSubmission{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		TaskID:  task.ID,
		QuestID: task.QuestID,
		Status:  models.SubmissionStatusPending,
	})
	if err != nil {
		return nil, err
	}
	if submission.Verified() {
		return service.cachedOutcome(ctx, submission)
	}

	if _, err := service.store.MarkSubmissionPending(ctx, submission.ID, claimData(claim)); err != nil {
		return nil, err
	}

	if service.registry.External(kind) {
		if detail, limited := service.rateLimited(ctx, user.ID); limited {
			return service.pendingOutcome(ctx, submission.ID, detail, nil)
		}
	}

	result, verr := service.run(ctx, strategy, task, user, claim)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if verr != nil {
		return service.failedOutcome(ctx, submission.ID, kind, verr)
	}

	data := verificationData(result)
	if !result.Accepted {
		if _, err := service.store.MarkSubmissionRejected(ctx, submission.ID, data); err != nil {
			return nil, err
		}

		log.Println("Verify:", "user:", user.ID, "task:", task.ID, "type:", kind, "rejected:", result.Detail)
		return service.outcome(ctx, submission.ID, false, result.Detail, "")
	}

	verified, err := service.store.MarkSubmissionVerified(ctx, submission.ID, task.XPReward, data, time.Now())
	if err != nil {
		return nil, err
	}
	if !verified {
		current, err := service.store.GetSubmission(ctx, submission.ID)
		if err != nil {
			return nil, err
		}
		return service.cachedOutcome(ctx, current)
	}

	log.Println("Verify:", "user:", user.ID, "task:", task.ID, "type:", kind, "xp:", task.XPReward)

	if _, err := service.serviceLedger.RecomputeUserTotal(ctx, user.ID); err != nil {
		log.Println("[verification] recompute total", user.ID, err)
	}

	return service.outcome(ctx, submission.ID, true, verifier.DetailVerified, "")
}

func (service *ServiceVerification) run(ctx context.Context, strategy verifier.Strategy, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
	seconds, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_VERIFY_TIMEOUT_SECONDS, DEFAULT_VERIFY_TIMEOUT_SECONDS)
	if err != nil || seconds <= 0 {
		seconds = DEFAULT_VERIFY_TIMEOUT_SECONDS
	}

	vctx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
	defer cancel()

	result, err := strategy.Verify(vctx, task, user, claim)
	if err == nil && result == nil {
		err = errors.New("strategy returned no result")
	}
	if err == nil && vctx.Err() != nil {
		// a verdict that arrives after the deadline does not count
		err = vctx.Err()
	}

	return result, err
}

func (service *ServiceVerification) rateLimited(ctx context.Context, userID string) (verifier.Detail, bool) {
	perMinute, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE, DEFAULT_SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE)
	if err != nil || perMinute <= 0 {
		perMinute = DEFAULT_SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE
	}

	err = service.limiter.Allow(ctx, LimitKeyUserVerify(userID), redis_rate.PerMinute(perMinute))
	if errors.Is(err, tklimiter.ErrRateLimited) {
		return verifier.DetailRateLimited, true
	}
	if err != nil {
		log.Println("[verification] limiter", userID, err)
	}

	return "", false
}

// failedOutcome maps a strategy error. Broken task configuration rejects the row; everything
// else leaves it pending for a retry.
func (service *ServiceVerification) failedOutcome(ctx context.Context, submissionID string, kind models.VerificationType, err error) (*SubmissionOutcome, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Println("[verification] timeout", submissionID, kind)
		return service.pendingOutcome(ctx, submissionID, verifier.DetailTimeout, err)
	}

	verr, ok := verifier.AsError(err)
	if !ok {
		log.Println("[verification] strategy", submissionID, kind, err)
		return service.pendingOutcome(ctx, submissionID, verifier.DetailUnavailable, err)
	}

	if verr.Kind == verifier.ErrorKindConfiguration {
		data := map[string]any{"detail": verr.Detail, "error": verr.Error()}
		if _, err := service.store.MarkSubmissionRejected(ctx, submissionID, data); err != nil {
			return nil, err
		}
		return service.outcome(ctx, submissionID, false, verr.Detail, verr.Error())
	}

	return service.pendingOutcome(ctx, submissionID, verr.Detail, verr)
}

func (service *ServiceVerification) pendingOutcome(ctx context.Context, submissionID string, detail verifier.Detail, err error) (*SubmissionOutcome, error) {
	message := ""
	if err != nil {
		message = err.Error()
	}

	return service.outcome(ctx, submissionID, false, detail, message)
}

func (service *ServiceVerification) outcome(ctx context.Context, submissionID string, success bool, detail verifier.Detail, message string) (*SubmissionOutcome, error) {
	submission, err := service.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	outcome := &SubmissionOutcome{Success: success, Detail: detail, Error: message, Submission: submission}
	if success {
		completed, err := service.serviceCompletion.IsQuestCompleted(ctx, submission.QuestID, submission.UserID)
		if err != nil {
			log.Println("[verification] completion", submission.QuestID, submission.UserID, err)
		}
		outcome.QuestCompleted = completed
	}

	return outcome, nil
}

func (service *ServiceVerification) cachedOutcome(ctx context.Context, submission *models.UserTaskSubmission) (*SubmissionOutcome, error) {
	completed, err := service.serviceCompletion.IsQuestCompleted(ctx, submission.QuestID, submission.UserID)
	if err != nil {
		log.Println("[verification] completion", submission.QuestID, submission.UserID, err)
	}

	return &SubmissionOutcome{
		Success:        true,
		Detail:         verifier.DetailAlreadyVerified,
		Cached:         true,
		QuestCompleted: completed,
		Submission:     submission,
	}, nil
}

func claimData(claim *models.Claim) map[string]any {
	data := map[string]any{"type": string(claim.Type)}
	if claim.DurationSeconds > 0 {
		data["duration_seconds"] = claim.DurationSeconds
	}
	if claim.Completed {
		data["completed"] = true
	}
	if claim.SelectedIndices != nil {
		data["selected_indices"] = claim.SelectedIndices
	}
	if len(claim.Metadata) > 0 {
		data["metadata"] = claim.Metadata
	}
	return data
}

func verificationData(result *verifier.Result) map[string]any {
	data := map[string]any{"detail": string(result.Detail)}
	if result.ExternalRef != "" {
		data["external_ref"] = result.ExternalRef
	}
	for k, v := range result.Data {
		data[k] = v
	}
	return data
}
