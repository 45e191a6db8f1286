package datastore

import (
	"context"
	"time"

	"questboard/internal/interfaces"
	"questboard/internal/models"

	"github.com/uptrace/bun"
)

// Store binds the query functions to one database for the services.
type Store struct {
	db *bun.DB
}

var _ interfaces.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db}
}

// CreateTables creates every table the service needs.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, create := range []func(context.Context, *bun.DB) error{
		CreateTableConfig,
		CreateTableUser,
		CreateTableSocialAccount,
		CreateTableProject,
		CreateTableQuest,
		CreateTableTask,
		CreateTableUserTaskSubmission,
	} {
		if err := create(ctx, db); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) GetConfig(ctx context.Context, key string) (*models.Config, error) {
	return GetConfigByKey(ctx, s.db, key)
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	return InsertProject(ctx, s.db, project)
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return GetProjectByID(ctx, s.db, id)
}

func (s *Store) CreateQuest(ctx context.Context, quest *models.Quest) error {
	return InsertQuest(ctx, s.db, quest)
}

func (s *Store) GetQuest(ctx context.Context, id string) (*models.Quest, error) {
	return GetQuestByID(ctx, s.db, id)
}

func (s *Store) ListProjectQuests(ctx context.Context, projectID string) ([]*models.Quest, error) {
	return GetQuestsByProject(ctx, s.db, projectID)
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	return InsertTask(ctx, s.db, task)
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return GetTaskByID(ctx, s.db, id)
}

func (s *Store) ListQuestTasks(ctx context.Context, questID string) ([]*models.Task, error) {
	return GetTasksByQuest(ctx, s.db, questID)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return FindUserByID(ctx, s.db, id)
}

func (s *Store) FindOrCreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	return FindOrCreateUser(ctx, s.db, user)
}

func (s *Store) RecomputeUserTotalXP(ctx context.Context, id string) (int, error) {
	return RecomputeUserTotalXP(ctx, s.db, id)
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	return GetUserIDs(ctx, s.db)
}

func (s *Store) ListSocialAccounts(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	return GetSocialAccountsByUser(ctx, s.db, userID)
}

func (s *Store) UpsertSocialAccount(ctx context.Context, account *models.SocialAccount) error {
	return UpsertSocialAccount(ctx, s.db, account)
}

func (s *Store) GetSubmission(ctx context.Context, id string) (*models.UserTaskSubmission, error) {
	return GetSubmissionByID(ctx, s.db, id)
}

func (s *Store) GetUserTaskSubmission(ctx context.Context, userID string, taskID string) (*models.UserTaskSubmission, error) {
	return GetUserTaskSubmission(ctx, s.db, userID, taskID)
}

func (s *Store) FindOrCreateSubmission(ctx context.Context, submission *models.UserTaskSubmission) (*models.UserTaskSubmission, error) {
	return FindOrCreateSubmission(ctx, s.db, submission)
}

func (s *Store) MarkSubmissionPending(ctx context.Context, id string, data map[string]any) (bool, error) {
	return MarkSubmissionPending(ctx, s.db, id, data)
}

func (s *Store) MarkSubmissionVerified(ctx context.Context, id string, xpEarned int, data map[string]any, at time.Time) (bool, error) {
	return MarkSubmissionVerified(ctx, s.db, id, xpEarned, data, at)
}

func (s *Store) MarkSubmissionRejected(ctx context.Context, id string, data map[string]any) (bool, error) {
	return MarkSubmissionRejected(ctx, s.db, id, data)
}

func (s *Store) RemoveSubmissionXP(ctx context.Context, id string, reason string, adminID string, at time.Time) (bool, error) {
	return RemoveSubmissionXP(ctx, s.db, id, reason, adminID, at)
}

func (s *Store) ListUserQuestSubmissions(ctx context.Context, userID string, questID string) ([]*models.UserTaskSubmission, error) {
	return GetUserQuestSubmissions(ctx, s.db, userID, questID)
}

func (s *Store) ListQuestSubmissions(ctx context.Context, questID string) ([]*models.UserTaskSubmission, error) {
	return GetQuestSubmissions(ctx, s.db, questID)
}

func (s *Store) SumUserXP(ctx context.Context, userID string) (int, error) {
	return SumUserXP(ctx, s.db, userID)
}
