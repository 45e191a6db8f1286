package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"questboard/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUserTaskSubmission(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserTaskSubmission)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserTaskSubmission)(nil)).Index("index_user_task_submission_user_id_task_id").Unique().IfNotExists().Column("user_id", "task_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserTaskSubmission)(nil)).Index("index_user_task_submission_quest_id_user_id").IfNotExists().Column("quest_id", "user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table user_task_submission
			drop constraint if exists check_xp_removed_le_xp_earned;
		alter table user_task_submission
			add constraint check_xp_removed_le_xp_earned check (xp_removed >= 0 and xp_removed <= xp_earned);`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func jsonb(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func GetSubmissionByID(ctx context.Context, db *bun.DB, id string) (*models.UserTaskSubmission, error) {
	var submission models.UserTaskSubmission
	err := db.NewSelect().Model(&submission).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func GetUserTaskSubmission(ctx context.Context, db *bun.DB, userID string, taskID string) (*models.UserTaskSubmission, error) {
	var submission models.UserTaskSubmission
	err := db.NewSelect().Model(&submission).Where("user_id = ?", userID).Where("task_id = ?", taskID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindOrCreateSubmission relies on the unique (user_id, task_id) index: a concurrent insert
// loses silently and both callers read the same row back.
func FindOrCreateSubmission(ctx context.Context, db *bun.DB, submission *models.UserTaskSubmission) (*models.UserTaskSubmission, error) {
	_, err := db.NewInsert().Model(submission).On("CONFLICT (user_id, task_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, err
	}

	return GetUserTaskSubmission(ctx, db, submission.UserID, submission.TaskID)
}

func MarkSubmissionPending(ctx context.Context, db *bun.DB, id string, data map[string]any) (bool, error) {
	raw, err := jsonb(data)
	if err != nil {
		return false, err
	}

	res, err := db.NewUpdate().Model((*models.UserTaskSubmission)(nil)).
		Set("status = ?", models.SubmissionStatusPending).
		Set("submission_data = ?::jsonb", raw).
		Set("attempts = attempts + 1").
		Set("submitted_at = current_timestamp").
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("status <> ?", models.SubmissionStatusVerified).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	return affected(res)
}

// MarkSubmissionVerified moves a non-verified row to verified. Only one caller can win it.
func MarkSubmissionVerified(ctx context.Context, db *bun.DB, id string, xpEarned int, data map[string]any, at time.Time) (bool, error) {
	raw, err := jsonb(data)
	if err != nil {
		return false, err
	}

	res, err := db.NewUpdate().Model((*models.UserTaskSubmission)(nil)).
		Set("status = ?", models.SubmissionStatusVerified).
		Set("xp_earned = ?", xpEarned).
		Set("verification_data = ?::jsonb", raw).
		Set("verified_at = COALESCE(verified_at, ?)", at).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("status <> ?", models.SubmissionStatusVerified).
		Where("xp_removed = 0").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	return affected(res)
}

func MarkSubmissionRejected(ctx context.Context, db *bun.DB, id string, data map[string]any) (bool, error) {
	raw, err := jsonb(data)
	if err != nil {
		return false, err
	}

	res, err := db.NewUpdate().Model((*models.UserTaskSubmission)(nil)).
		Set("status = ?", models.SubmissionStatusRejected).
		Set("verification_data = ?::jsonb", raw).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("status <> ?", models.SubmissionStatusVerified).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	return affected(res)
}

// RemoveSubmissionXP revokes the whole xp_earned of a verified row, once.
func RemoveSubmissionXP(ctx context.Context, db *bun.DB, id string, reason string, adminID string, at time.Time) (bool, error) {
	res, err := db.NewUpdate().Model((*models.UserTaskSubmission)(nil)).
		Set("xp_removed = xp_earned").
		Set("xp_removal_reason = ?", reason).
		Set("xp_removed_by = ?", adminID).
		Set("xp_removed_at = ?", at).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("status = ?", models.SubmissionStatusVerified).
		Where("xp_removed = 0").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	return affected(res)
}

func GetUserQuestSubmissions(ctx context.Context, db *bun.DB, userID string, questID string) ([]*models.UserTaskSubmission, error) {
	var submissions []*models.UserTaskSubmission
	err := db.NewSelect().Model(&submissions).Where("user_id = ?", userID).Where("quest_id = ?", questID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func GetQuestSubmissions(ctx context.Context, db *bun.DB, questID string) ([]*models.UserTaskSubmission, error) {
	var submissions []*models.UserTaskSubmission
	err := db.NewSelect().Model(&submissions).Where("quest_id = ?", questID).Order("submitted_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func SumUserXP(ctx context.Context, db *bun.DB, userID string) (int, error) {
	var total int
	err := db.NewSelect().Model((*models.UserTaskSubmission)(nil)).
		ColumnExpr("COALESCE(SUM(xp_earned - xp_removed), 0)").
		Where("user_id = ?", userID).
		Where("status = ?", models.SubmissionStatusVerified).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
