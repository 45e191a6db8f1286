package services

import (
	"errors"
	"strconv"
	"time"

	"questboard/internal/models"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// init data older than this is refused
const TELEGRAM_INIT_DATA_TTL = 24 * time.Hour

type TelegramAuth struct {
	token string
}

func NewTelegramAuth(token string) (*TelegramAuth, error) {
	return &TelegramAuth{token}, nil
}

// Account validates Mini App init data signed with the bot token and returns the telegram account in it.
func (auth *TelegramAuth) Account(dataStr string) (*models.LinkedAccount, error) {
	if auth.token == "" {
		return nil, errors.New("telegram bot token is not configured")
	}

	if err := initdata.Validate(dataStr, auth.token, TELEGRAM_INIT_DATA_TTL); err != nil {
		return nil, err
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}
	if data.User.ID == 0 {
		return nil, errors.New("init data carries no user")
	}

	return &models.LinkedAccount{
		Platform:         models.PlatformTelegram,
		PlatformUserID:   strconv.FormatInt(data.User.ID, 10),
		PlatformUsername: data.User.Username,
	}, nil
}
