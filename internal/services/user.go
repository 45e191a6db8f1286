package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"questboard/internal/interfaces"
	"questboard/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

type ServiceUser struct {
	container    *do.Injector
	store        interfaces.UserStore
	telegramAuth *TelegramAuth
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	telegramAuth, err := do.Invoke[*TelegramAuth](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, store, telegramAuth}, nil
}

func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.UserFromAuth) (*models.User, error) {
	if userAuth == nil || userAuth.ID == "" {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	user, err := service.store.FindOrCreateUser(ctx, &models.User{
		ID:       userAuth.ID,
		Username: strings.ToLower(userAuth.Username),
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (service *ServiceUser) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := service.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// ResolveIdentity collects the user's linked platform accounts.
func (service *ServiceUser) ResolveIdentity(ctx context.Context, userID string) (*models.UserIdentity, error) {
	accounts, err := service.store.ListSocialAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	identity := &models.UserIdentity{ID: userID, LinkedAccounts: map[models.Platform]models.LinkedAccount{}}
	for _, account := range accounts {
		identity.LinkedAccounts[account.Platform] = models.LinkedAccount{
			Platform:         account.Platform,
			PlatformUserID:   account.PlatformUserID,
			PlatformUsername: account.PlatformUsername,
		}
	}

	return identity, nil
}

// LinkAccount stores an identity handed over by an OAuth callback or a signed login payload.
func (service *ServiceUser) LinkAccount(ctx context.Context, userID string, account models.LinkedAccount) error {
	switch account.Platform {
	case models.PlatformTwitter, models.PlatformDiscord, models.PlatformTelegram:
	default:
		return errorx.Wrap(errors.New("unsupported platform"), errorx.Validation)
	}
	if account.PlatformUserID == "" {
		return errorx.Wrap(errors.New("platform user id is required"), errorx.Validation)
	}

	err := service.store.UpsertSocialAccount(ctx, &models.SocialAccount{
		UserID:           userID,
		Platform:         account.Platform,
		PlatformUserID:   account.PlatformUserID,
		PlatformUsername: account.PlatformUsername,
	})
	if err != nil {
		return err
	}

	log.Println("Link account:", "user:", userID, "platform:", account.Platform, "platform_user:", account.PlatformUserID)
	return nil
}

// LinkTelegram links the telegram account that signed the Mini App init data.
func (service *ServiceUser) LinkTelegram(ctx context.Context, userID string, initData string) (*models.LinkedAccount, error) {
	account, err := service.telegramAuth.Account(initData)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Validation)
	}

	if err := service.LinkAccount(ctx, userID, *account); err != nil {
		return nil, err
	}

	return account, nil
}
