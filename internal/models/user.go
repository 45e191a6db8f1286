package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:user"`
	ID            string    `bun:"id,pk" json:"id"`
	Username      string    `bun:"username" json:"username"`
	Email         *string   `bun:"email" json:"email"`
	AvatarURL     *string   `bun:"avatar_url" json:"avatar_url"`
	TotalXP       int       `bun:"total_xp,notnull,default:0" json:"total_xp"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type SocialAccount struct {
	bun.BaseModel    `bun:"table:social_account"`
	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID           string    `bun:"user_id,notnull" json:"user_id"`
	Platform         Platform  `bun:"platform,notnull" json:"platform"`
	PlatformUserID   string    `bun:"platform_user_id,notnull" json:"platform_user_id"`
	PlatformUsername string    `bun:"platform_username" json:"platform_username"`
	CreatedAt        time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

type LinkedAccount struct {
	Platform         Platform `json:"platform"`
	PlatformUserID   string   `json:"platform_user_id"`
	PlatformUsername string   `json:"platform_username"`
}

// UserIdentity is the resolved user handed to verification strategies.
type UserIdentity struct {
	ID             string                     `json:"id"`
	LinkedAccounts map[Platform]LinkedAccount `json:"linked_accounts"`
}

func (identity *UserIdentity) Account(platform Platform) (LinkedAccount, bool) {
	if identity == nil || identity.LinkedAccounts == nil {
		return LinkedAccount{}, false
	}

	account, ok := identity.LinkedAccounts[platform]
	if !ok || account.PlatformUserID == "" {
		return LinkedAccount{}, false
	}

	return account, true
}
