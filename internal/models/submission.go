package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusVerified SubmissionStatus = "verified"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// UserTaskSubmission is the single outcome row of one user for one task.
type UserTaskSubmission struct {
	bun.BaseModel    `bun:"table:user_task_submission"`
	ID               string           `bun:"id,pk" json:"id"`
	UserID           string           `bun:"user_id,notnull" json:"user_id"`
	TaskID           string           `bun:"task_id,notnull" json:"task_id"`
	QuestID          string           `bun:"quest_id,notnull" json:"quest_id"`
	Status           SubmissionStatus `bun:"status,notnull" json:"status"`
	SubmissionData   map[string]any   `bun:"submission_data,type:jsonb" json:"submission_data"`
	VerificationData map[string]any   `bun:"verification_data,type:jsonb" json:"verification_data"`
	XPEarned         int              `bun:"xp_earned,notnull,default:0" json:"xp_earned"`
	XPRemoved        int              `bun:"xp_removed,notnull,default:0" json:"xp_removed"`
	XPRemovalReason  *string          `bun:"xp_removal_reason" json:"xp_removal_reason"`
	XPRemovedBy      *string          `bun:"xp_removed_by" json:"xp_removed_by"`
	XPRemovedAt      *time.Time       `bun:"xp_removed_at" json:"xp_removed_at"`
	Attempts         int              `bun:"attempts,notnull,default:0" json:"attempts"`
	SubmittedAt      time.Time        `bun:"submitted_at,default:current_timestamp" json:"submitted_at"`
	VerifiedAt       *time.Time       `bun:"verified_at" json:"verified_at"`
	UpdatedAt        time.Time        `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

func (s *UserTaskSubmission) Verified() bool {
	return s.Status == SubmissionStatusVerified
}

// NetXP is what the submission contributes to the user's total.
func (s *UserTaskSubmission) NetXP() int {
	if !s.Verified() {
		return 0
	}

	return s.XPEarned - s.XPRemoved
}

type TotalXP struct {
	UserID  string `bun:"user_id" json:"user_id"`
	TotalXP int    `bun:"total_xp" json:"total_xp"`
}
