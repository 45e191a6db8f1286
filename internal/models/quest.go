package models

import (
	"time"

	"github.com/uptrace/bun"
)

type QuestStatus string

const (
	QuestStatusDraft  QuestStatus = "draft"
	QuestStatusActive QuestStatus = "active"
	QuestStatusEnded  QuestStatus = "ended"
)

type Project struct {
	bun.BaseModel `bun:"table:project"`
	ID            string    `bun:"id,pk" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Slug          string    `bun:"slug,unique" json:"slug"`
	OwnerID       string    `bun:"owner_id,notnull" json:"owner_id"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type Quest struct {
	bun.BaseModel    `bun:"table:quest"`
	ID               string      `bun:"id,pk" json:"id"`
	ProjectID        string      `bun:"project_id,notnull" json:"project_id"`
	CreatorID        string      `bun:"creator_id,notnull" json:"creator_id"`
	Title            string      `bun:"title,notnull" json:"title"`
	Slug             string      `bun:"slug" json:"slug"`
	Status           QuestStatus `bun:"status" json:"status"`
	TimeLimitSeconds *int64      `bun:"time_limit_seconds" json:"time_limit_seconds"`
	CreatedAt        time.Time   `bun:"created_at,default:current_timestamp" json:"created_at"`

	Tasks   []*Task `bun:"-" json:"tasks,omitempty"`
	TotalXP int     `bun:"-" json:"total_xp"`
}

// EndsAt is nil for quests without a time limit.
func (quest *Quest) EndsAt() *time.Time {
	if quest.TimeLimitSeconds == nil {
		return nil
	}

	endsAt := quest.CreatedAt.Add(time.Duration(*quest.TimeLimitSeconds) * time.Second)
	return &endsAt
}

func (quest *Quest) Ended(now time.Time) bool {
	if quest.Status == QuestStatusEnded {
		return true
	}

	endsAt := quest.EndsAt()
	return endsAt != nil && now.After(*endsAt)
}

type QuestProgress struct {
	QuestID        string `json:"quest_id"`
	UserID         string `json:"user_id"`
	CompletedTasks int    `json:"completed_tasks"`
	TotalTasks     int    `json:"total_tasks"`
	EarnedXP       int    `json:"earned_xp"`
	Completed      bool   `json:"completed"`
}
