package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"questboard/internal/datastore/memory"
	"questboard/internal/interfaces"
	"questboard/internal/models"
	"questboard/internal/pkg/caching"
	"questboard/internal/pkg/limiter"
	"questboard/internal/pkg/locker"
	"questboard/internal/verifier"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ctx          context.Context
	store        *memory.Store
	quests       *ServiceQuest
	users        *ServiceUser
	verification *ServiceVerification
	ledger       *ServiceLedger
	completion   *ServiceCompletion
}

func newTestEnv(t *testing.T, registry *verifier.Registry) *testEnv {
	t.Helper()

	return newWrappedTestEnv(t, registry, func(store *memory.Store) interfaces.Store { return store })
}

// newWrappedTestEnv hands the services the store returned by wrap.
func newWrappedTestEnv(t *testing.T, registry *verifier.Registry, wrap func(*memory.Store) interfaces.Store) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.New()

	injector := do.New()
	do.ProvideValue[interfaces.Store](injector, wrap(store))
	do.ProvideValue[interfaces.Locker](injector, locker.NewLocal())
	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		return limiter.NewLimiter(client)
	})
	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheRedis(client, false)
	})
	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		return caching.NewCacheRedis(client, false)
	})
	do.ProvideValue(injector, registry)
	do.Provide(injector, func(i *do.Injector) (*TelegramAuth, error) {
		return NewTelegramAuth("")
	})
	ProvideServices(injector)

	return &testEnv{
		ctx:          context.Background(),
		store:        store,
		quests:       do.MustInvoke[*ServiceQuest](injector),
		users:        do.MustInvoke[*ServiceUser](injector),
		verification: do.MustInvoke[*ServiceVerification](injector),
		ledger:       do.MustInvoke[*ServiceLedger](injector),
		completion:   do.MustInvoke[*ServiceCompletion](injector),
	}
}

func (env *testEnv) user(t *testing.T, id string) *models.UserIdentity {
	t.Helper()

	_, err := env.users.FindOrCreateUser(env.ctx, &models.UserFromAuth{ID: id, Username: id})
	require.NoError(t, err)

	identity, err := env.users.ResolveIdentity(env.ctx, id)
	require.NoError(t, err)
	return identity
}

func (env *testEnv) quest(t *testing.T, ownerID string) *models.Quest {
	t.Helper()

	project, err := env.quests.CreateProject(env.ctx, ownerID, "Acme Labs")
	require.NoError(t, err)

	quest, err := env.quests.CreateQuest(env.ctx, ownerID, project.ID, &QuestInput{Title: "Onboarding"})
	require.NoError(t, err)
	return quest
}

func (env *testEnv) visitTask(t *testing.T, ownerID string, questID string, xp int, minDuration int) *models.Task {
	t.Helper()

	task, err := env.quests.AddTask(env.ctx, ownerID, questID, &models.TaskDraft{
		Title:    "Read the docs",
		XPReward: xp,
		Payload:  models.TaskPayload{Payload: &models.VisitPayload{URL: "https://docs.acme.dev", MinDurationSeconds: minDuration}},
	})
	require.NoError(t, err)
	return task
}

func (env *testEnv) learnTask(t *testing.T, ownerID string, questID string, xp int) *models.Task {
	t.Helper()

	task, err := env.quests.AddTask(env.ctx, ownerID, questID, &models.TaskDraft{
		Title:    "Quiz",
		XPReward: xp,
		Payload: models.TaskPayload{Payload: &models.LearnPayload{
			Question:       "What does Acme ship?",
			Answers:        []string{"Rockets", "Anvils", "Both"},
			CorrectAnswers: []int{1},
		}},
	})
	require.NoError(t, err)
	return task
}

func (env *testEnv) totalXP(t *testing.T, userID string) int {
	t.Helper()

	user, err := env.users.GetUser(env.ctx, userID)
	require.NoError(t, err)
	return user.TotalXP
}

func TestQuestScenario(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 20)
	learn := env.learnTask(t, "owner", quest.ID, 100)

	outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{Type: models.VerificationVisit, TaskID: visit.ID, DurationSeconds: 30})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, verifier.DetailVerified, outcome.Detail)
	assert.Equal(t, 50, outcome.Submission.XPEarned)
	assert.False(t, outcome.QuestCompleted)
	assert.Equal(t, 50, env.totalXP(t, "u1"))

	outcome, err = env.verification.Attempt(env.ctx, user, &models.Claim{Type: models.VerificationLearn, TaskID: learn.ID, SelectedIndices: []int{0}})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, verifier.DetailQuizFailed, outcome.Detail)
	assert.Equal(t, models.SubmissionStatusRejected, outcome.Submission.Status)

	outcome, err = env.verification.Attempt(env.ctx, user, &models.Claim{Type: models.VerificationLearn, TaskID: learn.ID, SelectedIndices: []int{1}})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 100, outcome.Submission.XPEarned)
	assert.True(t, outcome.QuestCompleted)
	assert.Equal(t, 150, env.totalXP(t, "u1"))

	removed, err := env.ledger.RemoveXP(env.ctx, outcome.Submission.ID, "manual review failed", "owner")
	require.NoError(t, err)
	assert.Equal(t, 100, removed.XPEarned)
	assert.Equal(t, 100, removed.XPRemoved)
	assert.Equal(t, "owner", *removed.XPRemovedBy)
	assert.Equal(t, 50, env.totalXP(t, "u1"))

	total, err := env.ledger.RecomputeUserTotal(env.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	completed, err := env.completion.IsQuestCompleted(env.ctx, quest.ID, "u1")
	require.NoError(t, err)
	assert.True(t, completed)

	// revoked XP cannot be earned again
	outcome, err = env.verification.Attempt(env.ctx, user, &models.Claim{Type: models.VerificationLearn, TaskID: learn.ID, SelectedIndices: []int{1}})
	require.NoError(t, err)
	assert.True(t, outcome.Cached)
	assert.Equal(t, verifier.DetailAlreadyVerified, outcome.Detail)
	assert.Equal(t, 50, env.totalXP(t, "u1"))
}

func TestAttemptRejectedThenRetried(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 30)

	outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID, DurationSeconds: 10})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, verifier.DetailDurationTooShort, outcome.Detail)
	assert.Equal(t, models.SubmissionStatusRejected, outcome.Submission.Status)
	assert.Equal(t, 0, outcome.Submission.XPEarned)

	outcome, err = env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID, DurationSeconds: 31})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, models.SubmissionStatusVerified, outcome.Submission.Status)
	assert.Equal(t, 2, outcome.Submission.Attempts)
}

func countingRegistry(kind models.VerificationType, calls *int32, verify verifier.StrategyFunc) *verifier.Registry {
	registry := verifier.NewRegistry()
	registry.Register(kind, verifier.StrategyFunc(func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		atomic.AddInt32(calls, 1)
		return verify(ctx, task, user, claim)
	}), true)
	return registry
}

func TestAttemptIsIdempotent(t *testing.T) {
	var calls int32
	registry := countingRegistry(models.VerificationVisit, &calls, func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		return verifier.Accept("ref-1", nil), nil
	})

	env := newTestEnv(t, registry)
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 0)

	for i := 0; i < 3; i++ {
		_, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, 50, env.totalXP(t, "u1"))
}

func TestAttemptConcurrentDoubleClick(t *testing.T) {
	var calls int32
	registry := countingRegistry(models.VerificationVisit, &calls, func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		time.Sleep(20 * time.Millisecond)
		return verifier.Accept("", nil), nil
	})

	env := newTestEnv(t, registry)
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 0)

	var (
		wg       sync.WaitGroup
		verified int32
		cached   int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
			if !assert.NoError(t, err) {
				return
			}
			if outcome.Cached {
				atomic.AddInt32(&cached, 1)
			} else if outcome.Success {
				atomic.AddInt32(&verified, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&verified))
	assert.EqualValues(t, 7, atomic.LoadInt32(&cached))
	assert.Equal(t, 50, env.totalXP(t, "u1"))
}

// lateRecomputeStore holds the first total recompute back until a second one has finished.
type lateRecomputeStore struct {
	interfaces.Store
	calls      int32
	secondDone chan struct{}
}

func (s *lateRecomputeStore) RecomputeUserTotalXP(ctx context.Context, id string) (int, error) {
	if atomic.AddInt32(&s.calls, 1) == 1 {
		select {
		case <-s.secondDone:
		case <-time.After(2 * time.Second):
		}
		return s.Store.RecomputeUserTotalXP(ctx, id)
	}

	defer close(s.secondDone)
	return s.Store.RecomputeUserTotalXP(ctx, id)
}

func TestConcurrentVerificationsKeepNewestTotal(t *testing.T) {
	late := &lateRecomputeStore{secondDone: make(chan struct{})}
	env := newWrappedTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}), func(store *memory.Store) interfaces.Store {
		late.Store = store
		return late
	})
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	first := env.visitTask(t, "owner", quest.ID, 50, 0)
	second := env.visitTask(t, "owner", quest.ID, 100, 0)

	var wg sync.WaitGroup
	for _, task := range []*models.Task{first, second} {
		wg.Add(1)
		go func(taskID string) {
			defer wg.Done()
			outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: taskID})
			if assert.NoError(t, err) {
				assert.True(t, outcome.Success)
			}
		}(task.ID)
	}
	wg.Wait()

	sum, err := env.store.SumUserXP(env.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 150, sum)
	assert.Equal(t, 150, env.totalXP(t, "u1"))
}

func TestRemoveXPWaitsForInFlightAttempt(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	registry := countingRegistry(models.VerificationVisit, &calls, func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		close(entered)
		<-release
		return verifier.Accept("", nil), nil
	})

	env := newTestEnv(t, registry)
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 0)

	attempted := make(chan *SubmissionOutcome, 1)
	go func() {
		outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
		assert.NoError(t, err)
		attempted <- outcome
	}()
	<-entered

	// the row exists and is pending while the strategy runs
	submission, err := env.store.GetUserTaskSubmission(env.ctx, "u1", visit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)

	var (
		wg      sync.WaitGroup
		removed int32
		already int32
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.RemoveXP(env.ctx, submission.ID, "bot farm", "owner")
			switch {
			case err == nil:
				atomic.AddInt32(&removed, 1)
			case errors.Is(err, ErrXPAlreadyRemoved):
				atomic.AddInt32(&already, 1)
			default:
				t.Errorf("unexpected removal error: %v", err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	outcome := <-attempted
	require.NotNil(t, outcome)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.Cached)

	// every removal waited for the verification, so exactly one of them revoked the XP
	assert.EqualValues(t, 1, atomic.LoadInt32(&removed))
	assert.EqualValues(t, 3, atomic.LoadInt32(&already))

	current, err := env.store.GetSubmission(env.ctx, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusVerified, current.Status)
	assert.Equal(t, 50, current.XPEarned)
	assert.Equal(t, current.XPEarned, current.XPRemoved)
	assert.Equal(t, 0, env.totalXP(t, "u1"))
}

func TestAttemptTimeoutStaysPending(t *testing.T) {
	var calls int32
	registry := countingRegistry(models.VerificationVisit, &calls, func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	env := newTestEnv(t, registry)
	env.store.SetConfig(CONFIG_VERIFY_TIMEOUT_SECONDS, "1")
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 0)

	outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, verifier.DetailTimeout, outcome.Detail)
	assert.Equal(t, models.SubmissionStatusPending, outcome.Submission.Status)
	assert.Equal(t, 0, env.totalXP(t, "u1"))
}

func TestAttemptPlatformErrors(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")

	task, err := env.quests.AddTask(env.ctx, "owner", quest.ID, &models.TaskDraft{
		Title:    "Follow us",
		XPReward: 20,
		Payload: models.TaskPayload{Payload: &models.SocialPayload{
			Platform:  models.PlatformTwitter,
			Action:    models.SocialActionFollow,
			TargetURL: "https://x.com/acme",
		}},
	})
	require.NoError(t, err)

	// no twitter client is configured
	outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{Type: models.VerificationTwitterFollow, TaskID: task.ID})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, verifier.DetailUnavailable, outcome.Detail)
	assert.Equal(t, models.SubmissionStatusPending, outcome.Submission.Status)
}

func TestAttemptErrors(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 0)

	_, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: "missing"})
	assert.Error(t, err)

	_, err = env.verification.Attempt(env.ctx, &models.UserIdentity{ID: "ghost"}, &models.Claim{TaskID: visit.ID})
	assert.Error(t, err)

	_, err = env.verification.Attempt(env.ctx, user, &models.Claim{Type: models.VerificationLearn, TaskID: visit.ID})
	assert.Error(t, err)

	_, err = env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID, UserID: "someone-else"})
	assert.Error(t, err)

	_, err = env.store.GetUserTaskSubmission(env.ctx, "u1", visit.ID)
	assert.Error(t, err, "no row is created for refused requests")
}

func TestAttemptRateLimited(t *testing.T) {
	var calls int32
	registry := countingRegistry(models.VerificationVisit, &calls, func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		return verifier.Reject(verifier.DetailNotFollowing, nil), nil
	})

	env := newTestEnv(t, registry)
	env.store.SetConfig(CONFIG_SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE, "2")
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 50, 0)

	var details []verifier.Detail
	for i := 0; i < 3; i++ {
		outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
		require.NoError(t, err)
		details = append(details, outcome.Detail)
	}

	assert.Equal(t, []verifier.Detail{verifier.DetailNotFollowing, verifier.DetailNotFollowing, verifier.DetailRateLimited}, details)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRemoveXPPreconditions(t *testing.T) {
	var calls int32
	accept := true
	registry := countingRegistry(models.VerificationVisit, &calls, func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*verifier.Result, error) {
		if accept {
			return verifier.Accept("", nil), nil
		}
		return verifier.Reject(verifier.DetailDurationTooShort, nil), nil
	})

	env := newTestEnv(t, registry)
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")
	verifiedTask := env.visitTask(t, "owner", quest.ID, 50, 0)
	rejectedTask := env.visitTask(t, "owner", quest.ID, 10, 0)

	verified, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: verifiedTask.ID})
	require.NoError(t, err)

	accept = false
	rejected, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: rejectedTask.ID})
	require.NoError(t, err)

	_, err = env.ledger.RemoveXP(env.ctx, verified.Submission.ID, "  ", "owner")
	assert.Error(t, err)

	_, err = env.ledger.RemoveXP(env.ctx, verified.Submission.ID, "bot", "intruder")
	assert.ErrorIs(t, err, ErrNotProjectOwner)

	_, err = env.ledger.RemoveXP(env.ctx, rejected.Submission.ID, "bot", "owner")
	assert.ErrorIs(t, err, ErrSubmissionNotVerified)

	_, err = env.ledger.RemoveXP(env.ctx, "missing", "bot", "owner")
	assert.Error(t, err)

	_, err = env.ledger.RemoveXP(env.ctx, verified.Submission.ID, "bot", "owner")
	require.NoError(t, err)

	_, err = env.ledger.RemoveXP(env.ctx, verified.Submission.ID, "bot again", "owner")
	assert.ErrorIs(t, err, ErrXPAlreadyRemoved)

	submission, err := env.store.GetSubmission(env.ctx, verified.Submission.ID)
	require.NoError(t, err)
	assert.Equal(t, "bot", *submission.XPRemovalReason)
	assert.Equal(t, 50, submission.XPEarned)
	assert.Equal(t, 0, env.totalXP(t, "u1"))
}

func TestCompletionFollowsTaskList(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	user := env.user(t, "u1")
	quest := env.quest(t, "owner")

	completed, err := env.completion.IsQuestCompleted(env.ctx, quest.ID, "u1")
	require.NoError(t, err)
	assert.False(t, completed, "a quest without tasks is never completed")

	visit := env.visitTask(t, "owner", quest.ID, 50, 0)
	outcome, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
	require.NoError(t, err)
	assert.True(t, outcome.QuestCompleted)

	env.learnTask(t, "owner", quest.ID, 100)

	progress, err := env.completion.QuestProgress(env.ctx, quest.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CompletedTasks)
	assert.Equal(t, 2, progress.TotalTasks)
	assert.Equal(t, 50, progress.EarnedXP)
	assert.False(t, progress.Completed)

	_, err = env.completion.QuestProgress(env.ctx, "missing", "u1")
	assert.Error(t, err)
}

func TestQuestManagement(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	quest := env.quest(t, "owner")

	_, err := env.quests.AddTask(env.ctx, "intruder", quest.ID, &models.TaskDraft{
		Title:    "Read the docs",
		XPReward: 10,
		Payload:  models.TaskPayload{Payload: &models.VisitPayload{URL: "https://docs.acme.dev"}},
	})
	assert.ErrorIs(t, err, ErrNotProjectOwner)

	_, err = env.quests.AddTask(env.ctx, "owner", quest.ID, &models.TaskDraft{
		Title:    "Broken",
		XPReward: 0,
		Payload:  models.TaskPayload{Payload: &models.VisitPayload{URL: "not a url"}},
	})
	assert.Error(t, err)

	first := env.visitTask(t, "owner", quest.ID, 10, 0)
	second := env.learnTask(t, "owner", quest.ID, 20)
	assert.Equal(t, first.OrderIndex+1, second.OrderIndex)

	full, err := env.quests.GetQuest(env.ctx, quest.ID)
	require.NoError(t, err)
	require.Len(t, full.Tasks, 2)
	assert.Equal(t, first.ID, full.Tasks[0].ID)
	assert.Equal(t, 30, full.TotalXP)
}

func TestQuestEndedRefusesAttempts(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	user := env.user(t, "u1")

	project, err := env.quests.CreateProject(env.ctx, "owner", "Acme Labs")
	require.NoError(t, err)
	quest, err := env.quests.CreateQuest(env.ctx, "owner", project.ID, &QuestInput{Title: "Season 0", Status: models.QuestStatusEnded})
	require.NoError(t, err)
	visit := env.visitTask(t, "owner", quest.ID, 10, 0)

	_, err = env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
	assert.Error(t, err)
}

func TestReconcileAll(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	quest := env.quest(t, "owner")
	visit := env.visitTask(t, "owner", quest.ID, 40, 0)

	for _, id := range []string{"u1", "u2", "u3"} {
		user := env.user(t, id)
		_, err := env.verification.Attempt(env.ctx, user, &models.Claim{TaskID: visit.ID})
		require.NoError(t, err)
	}

	// drift the cached totals
	require.NoError(t, env.store.UpdateUserTotalXP(env.ctx, "u2", 999))

	n, err := env.ledger.ReconcileAll(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 40, env.totalXP(t, "u2"))
}

func TestIdentityLinking(t *testing.T) {
	env := newTestEnv(t, verifier.NewDefaultRegistry(verifier.Clients{}))
	env.user(t, "u1")

	err := env.users.LinkAccount(env.ctx, "u1", models.LinkedAccount{Platform: models.PlatformTwitter, PlatformUserID: "111", PlatformUsername: "alice"})
	require.NoError(t, err)
	// relinking replaces the account on the same platform
	err = env.users.LinkAccount(env.ctx, "u1", models.LinkedAccount{Platform: models.PlatformTwitter, PlatformUserID: "222", PlatformUsername: "alice2"})
	require.NoError(t, err)

	identity, err := env.users.ResolveIdentity(env.ctx, "u1")
	require.NoError(t, err)
	account, ok := identity.Account(models.PlatformTwitter)
	require.True(t, ok)
	assert.Equal(t, "222", account.PlatformUserID)
	_, ok = identity.Account(models.PlatformDiscord)
	assert.False(t, ok)

	assert.Error(t, env.users.LinkAccount(env.ctx, "u1", models.LinkedAccount{Platform: "myspace", PlatformUserID: "1"}))
	assert.Error(t, env.users.LinkAccount(env.ctx, "u1", models.LinkedAccount{Platform: models.PlatformDiscord}))

	// no bot token configured
	_, err = env.users.LinkTelegram(env.ctx, "u1", "query_id=x&hash=y")
	assert.Error(t, err)
}
