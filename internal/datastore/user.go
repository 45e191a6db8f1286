package datastore

import (
	"context"

	"questboard/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "user"
			add if not exists total_xp int not null default 0;
		alter table "user"
			alter column created_at set default current_timestamp;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserByID(ctx context.Context, db *bun.DB, userID string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateUser inserts the user unless the id is taken and returns the stored row.
func FindOrCreateUser(ctx context.Context, db *bun.DB, user *models.User) (*models.User, error) {
	_, err := db.NewInsert().Model(user).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, err
	}

	return FindUserByID(ctx, db, user.ID)
}

// RecomputeUserTotalXP rewrites total_xp from the user's verified submissions. The user row is
// locked before the sum is read, so the last recompute to commit always carries the newest sum.
func RecomputeUserTotalXP(ctx context.Context, db *bun.DB, userID string) (int, error) {
	var total int
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var id string
		err := tx.NewSelect().Model((*models.User)(nil)).Column("id").Where("id = ?", userID).For("UPDATE").Scan(ctx, &id)
		if err != nil {
			return err
		}

		return tx.NewRaw(`
			update "user" set
				total_xp = (
					select coalesce(sum(xp_earned - xp_removed), 0)
					from user_task_submission
					where user_id = ? and status = ?
				),
				updated_at = current_timestamp
			where id = ?
			returning total_xp`, userID, models.SubmissionStatusVerified, userID).Scan(ctx, &total)
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func GetUserIDs(ctx context.Context, db *bun.DB) ([]string, error) {
	var ids []string
	err := db.NewSelect().Model((*models.User)(nil)).Column("id").Order("created_at ASC").Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
