package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrQuestNotFound      = errors.New("quest not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrQuestEnded         = errors.New("quest ended")
	ErrTypeMismatch       = errors.New("verification type does not match the task")
	ErrNoStrategy         = errors.New("no verification strategy for task")
	ErrUserMismatch       = errors.New("user id does not match the session")

	// ErrSubmissionLocked means another attempt on the same submission held the lock for too long.
	ErrSubmissionLocked = errors.New("submission locked")

	ErrEmptyReason           = errors.New("removal reason is required")
	ErrXPAlreadyRemoved      = errors.New("xp already removed")
	ErrSubmissionNotVerified = errors.New("submission is not verified")
	ErrNotProjectOwner       = errors.New("not an owner of the quest's project")
)

const (
	CONFIG_SERVER_MODE                         = "SERVER_MODE"
	CONFIG_VERIFY_TIMEOUT_SECONDS              = "VERIFY_TIMEOUT_SECONDS"
	CONFIG_SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE = "SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE"
	CONFIG_CRONJOB_TIME_XP_RECONCILE           = "CRONJOB_TIME_XP_RECONCILE"

	SERVER_MODE_DEVELOPMENT = "development"
	SERVER_MODE_STAGING     = "staging"
	SERVER_MODE_PRODUCTION  = "production"

	DEFAULT_VERIFY_TIMEOUT_SECONDS              = 10
	DEFAULT_SOCIAL_VERIFY_RATE_LIMIT_PER_MINUTE = 10
	DEFAULT_CRONJOB_TIME_XP_RECONCILE           = "*/15 * * * *"

	// users recomputed at once by the reconcile job
	XP_RECONCILE_CONCURRENCY = 8

	CACHE_TTL_5_MINS  = 5 * time.Minute
	CACHE_TTL_15_MINS = 15 * time.Minute
)

func LockKeySubmission(userID string, taskID string) string {
	return fmt.Sprintf("lock:submission:%s:%s", userID, taskID)
}

func LockKeyXPReconcile() string {
	return "lock:xp-reconcile"
}

func LimitKeyUserVerify(userID string) string {
	return fmt.Sprintf("limit:verify:%s", userID)
}

// db
func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyProject(projectID string) string {
	return fmt.Sprintf("project:%s", projectID)
}

func DBKeyQuest(questID string) string {
	return fmt.Sprintf("quest:%s", questID)
}

func DBKeyQuestTasks(questID string) string {
	return fmt.Sprintf("quest:%s:tasks", questID)
}

func DBKeyTask(taskID string) string {
	return fmt.Sprintf("task:%s", taskID)
}
