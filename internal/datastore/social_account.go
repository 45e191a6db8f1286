package datastore

import (
	"context"

	"questboard/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableSocialAccount(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.SocialAccount)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.SocialAccount)(nil)).Index("index_social_account_user_id_platform").Unique().IfNotExists().Column("user_id", "platform").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.SocialAccount)(nil)).Index("index_social_account_platform_platform_user_id").IfNotExists().Column("platform", "platform_user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetSocialAccountsByUser(ctx context.Context, db *bun.DB, userID string) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	err := db.NewSelect().Model(&accounts).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpsertSocialAccount replaces the user's account on the same platform.
func UpsertSocialAccount(ctx context.Context, db *bun.DB, account *models.SocialAccount) error {
	_, err := db.NewInsert().Model(account).
		On("CONFLICT (user_id, platform) DO UPDATE").
		Set("platform_user_id = EXCLUDED.platform_user_id").
		Set("platform_username = EXCLUDED.platform_username").
		Set("updated_at = current_timestamp").
		Returning("*").
		Exec(ctx)
	return err
}
