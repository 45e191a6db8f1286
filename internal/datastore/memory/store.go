// Package memory is a process-local Store with the same row guards as the postgres one.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"questboard/internal/models"
)

type Store struct {
	mu          sync.RWMutex
	configs     map[string]string
	projects    map[string]models.Project
	quests      map[string]models.Quest
	tasks       map[string]models.Task
	users       map[string]models.User
	accounts    map[string]map[models.Platform]models.SocialAccount
	submissions map[string]models.UserTaskSubmission
	// (user_id, task_id) -> submission id
	byUserTask map[[2]string]string
	nextID     int64
}

func New() *Store {
	return &Store{
		configs:     map[string]string{},
		projects:    map[string]models.Project{},
		quests:      map[string]models.Quest{},
		tasks:       map[string]models.Task{},
		users:       map[string]models.User{},
		accounts:    map[string]map[models.Platform]models.SocialAccount{},
		submissions: map[string]models.UserTaskSubmission{},
		byUserTask:  map[[2]string]string{},
	}
}

func copyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (s *Store) SetConfig(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[key] = value
}

func (s *Store) GetConfig(ctx context.Context, key string) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.configs[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Config{Key: key, Value: value}, nil
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &project, nil
}

func (s *Store) CreateQuest(ctx context.Context, quest *models.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quest.CreatedAt.IsZero() {
		quest.CreatedAt = time.Now()
	}
	stored := *quest
	stored.Tasks = nil
	s.quests[quest.ID] = stored
	return nil
}

func (s *Store) GetQuest(ctx context.Context, id string) (*models.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quest, ok := s.quests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &quest, nil
}

func (s *Store) ListProjectQuests(ctx context.Context, projectID string) ([]*models.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quests []*models.Quest
	for _, quest := range s.quests {
		if quest.ProjectID == projectID {
			quest := quest
			quests = append(quests, &quest)
		}
	}
	sort.Slice(quests, func(i, j int) bool { return quests[i].CreatedAt.After(quests[j].CreatedAt) })
	return quests, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	s.tasks[task.ID] = *task
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &task, nil
}

func (s *Store) ListQuestTasks(ctx context.Context, questID string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*models.Task
	for _, task := range s.tasks {
		if task.QuestID == questID {
			task := task
			tasks = append(tasks, &task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].OrderIndex != tasks[j].OrderIndex {
			return tasks[i].OrderIndex < tasks[j].OrderIndex
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (s *Store) FindOrCreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[user.ID]; ok {
		return &existing, nil
	}

	stored := *user
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	s.users[user.ID] = stored
	return &stored, nil
}

// RecomputeUserTotalXP sums and writes under one lock.
func (s *Store) RecomputeUserTotalXP(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return 0, sql.ErrNoRows
	}

	total := 0
	for _, submission := range s.submissions {
		if submission.UserID == id {
			total += submission.NetXP()
		}
	}

	user.TotalXP = total
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return total, nil
}

// UpdateUserTotalXP overwrites the cached total as is, for seeding drift in tests.
func (s *Store) UpdateUserTotalXP(ctx context.Context, id string, totalXP int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil
	}
	user.TotalXP = totalXP
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListSocialAccounts(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*models.SocialAccount
	for _, account := range s.accounts[userID] {
		account := account
		accounts = append(accounts, &account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Platform < accounts[j].Platform })
	return accounts, nil
}

func (s *Store) UpsertSocialAccount(ctx context.Context, account *models.SocialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byPlatform, ok := s.accounts[account.UserID]
	if !ok {
		byPlatform = map[models.Platform]models.SocialAccount{}
		s.accounts[account.UserID] = byPlatform
	}

	now := time.Now()
	if existing, ok := byPlatform[account.Platform]; ok {
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		account.ID = s.nextID
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	byPlatform[account.Platform] = *account
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (*models.UserTaskSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submission, ok := s.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &submission, nil
}

func (s *Store) GetUserTaskSubmission(ctx context.Context, userID string, taskID string) (*models.UserTaskSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUserTask[[2]string{userID, taskID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	submission := s.submissions[id]
	return &submission, nil
}

func (s *Store) FindOrCreateSubmission(ctx context.Context, submission *models.UserTaskSubmission) (*models.UserTaskSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{submission.UserID, submission.TaskID}
	if id, ok := s.byUserTask[key]; ok {
		existing := s.submissions[id]
		return &existing, nil
	}

	stored := *submission
	stored.SubmissionData = copyData(submission.SubmissionData)
	now := time.Now()
	stored.SubmittedAt = now
	stored.UpdatedAt = now
	s.submissions[stored.ID] = stored
	s.byUserTask[key] = stored.ID
	return &stored, nil
}

// update applies fn to the row when guard accepts it.
func (s *Store) update(id string, guard func(*models.UserTaskSubmission) bool, fn func(*models.UserTaskSubmission)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[id]
	if !ok || !guard(&submission) {
		return false
	}

	fn(&submission)
	submission.UpdatedAt = time.Now()
	s.submissions[id] = submission
	return true
}

func notVerified(submission *models.UserTaskSubmission) bool {
	return submission.Status != models.SubmissionStatusVerified
}

func (s *Store) MarkSubmissionPending(ctx context.Context, id string, data map[string]any) (bool, error) {
	return s.update(id, notVerified, func(submission *models.UserTaskSubmission) {
		submission.Status = models.SubmissionStatusPending
		submission.SubmissionData = copyData(data)
		submission.Attempts++
		submission.SubmittedAt = time.Now()
	}), nil
}

func (s *Store) MarkSubmissionVerified(ctx context.Context, id string, xpEarned int, data map[string]any, at time.Time) (bool, error) {
	guard := func(submission *models.UserTaskSubmission) bool {
		return notVerified(submission) && submission.XPRemoved == 0
	}

	return s.update(id, guard, func(submission *models.UserTaskSubmission) {
		submission.Status = models.SubmissionStatusVerified
		submission.XPEarned = xpEarned
		submission.VerificationData = copyData(data)
		if submission.VerifiedAt == nil {
			submission.VerifiedAt = &at
		}
	}), nil
}

func (s *Store) MarkSubmissionRejected(ctx context.Context, id string, data map[string]any) (bool, error) {
	return s.update(id, notVerified, func(submission *models.UserTaskSubmission) {
		submission.Status = models.SubmissionStatusRejected
		submission.VerificationData = copyData(data)
	}), nil
}

func (s *Store) RemoveSubmissionXP(ctx context.Context, id string, reason string, adminID string, at time.Time) (bool, error) {
	guard := func(submission *models.UserTaskSubmission) bool {
		return submission.Status == models.SubmissionStatusVerified && submission.XPRemoved == 0
	}

	return s.update(id, guard, func(submission *models.UserTaskSubmission) {
		submission.XPRemoved = submission.XPEarned
		submission.XPRemovalReason = &reason
		submission.XPRemovedBy = &adminID
		submission.XPRemovedAt = &at
	}), nil
}

func (s *Store) list(match func(*models.UserTaskSubmission) bool) []*models.UserTaskSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.UserTaskSubmission
	for _, submission := range s.submissions {
		submission := submission
		if match(&submission) {
			out = append(out, &submission)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (s *Store) ListUserQuestSubmissions(ctx context.Context, userID string, questID string) ([]*models.UserTaskSubmission, error) {
	return s.list(func(submission *models.UserTaskSubmission) bool {
		return submission.UserID == userID && submission.QuestID == questID
	}), nil
}

func (s *Store) ListQuestSubmissions(ctx context.Context, questID string) ([]*models.UserTaskSubmission, error) {
	return s.list(func(submission *models.UserTaskSubmission) bool {
		return submission.QuestID == questID
	}), nil
}

func (s *Store) SumUserXP(ctx context.Context, userID string) (int, error) {
	total := 0
	for _, submission := range s.list(func(submission *models.UserTaskSubmission) bool {
		return submission.UserID == userID
	}) {
		total += submission.NetXP()
	}
	return total, nil
}
