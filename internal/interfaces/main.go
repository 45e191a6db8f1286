package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"

	"questboard/internal/models"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Locker serializes work on a key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Stores answer sql.ErrNoRows for missing rows.

type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (*models.Config, error)
}

type QuestStore interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreateQuest(ctx context.Context, quest *models.Quest) error
	GetQuest(ctx context.Context, id string) (*models.Quest, error)
	ListProjectQuests(ctx context.Context, projectID string) ([]*models.Quest, error)
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListQuestTasks(ctx context.Context, questID string) ([]*models.Task, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindOrCreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// RecomputeUserTotalXP stores and returns the sum of xp_earned - xp_removed over the user's
	// verified submissions. Concurrent calls must leave the newest sum in place.
	RecomputeUserTotalXP(ctx context.Context, id string) (int, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	ListSocialAccounts(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	UpsertSocialAccount(ctx context.Context, account *models.SocialAccount) error
}

// SubmissionStore keeps one row per (user, task). The Mark* and RemoveSubmissionXP updates are
// guarded by the row's current state and report false when the guard did not match.
type SubmissionStore interface {
	GetSubmission(ctx context.Context, id string) (*models.UserTaskSubmission, error)
	GetUserTaskSubmission(ctx context.Context, userID string, taskID string) (*models.UserTaskSubmission, error)
	FindOrCreateSubmission(ctx context.Context, submission *models.UserTaskSubmission) (*models.UserTaskSubmission, error)
	MarkSubmissionPending(ctx context.Context, id string, data map[string]any) (bool, error)
	MarkSubmissionVerified(ctx context.Context, id string, xpEarned int, data map[string]any, at time.Time) (bool, error)
	MarkSubmissionRejected(ctx context.Context, id string, data map[string]any) (bool, error)
	RemoveSubmissionXP(ctx context.Context, id string, reason string, adminID string, at time.Time) (bool, error)
	ListUserQuestSubmissions(ctx context.Context, userID string, questID string) ([]*models.UserTaskSubmission, error)
	ListQuestSubmissions(ctx context.Context, questID string) ([]*models.UserTaskSubmission, error)
	SumUserXP(ctx context.Context, userID string) (int, error)
}

type Store interface {
	ConfigStore
	QuestStore
	UserStore
	SubmissionStore
}
