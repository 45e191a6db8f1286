// Package telegram checks chat membership through the Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"questboard/internal/platform"
)

const API_BASE_URL = "https://api.telegram.org"

type Config struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
}

type Client struct {
	bot *tele.Bot
}

// recipient is a chat or user reference passed verbatim to the Bot API.
type recipient string

func (r recipient) Recipient() string { return string(r) }

func New(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = API_BASE_URL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = platform.DefaultTimeout
	}

	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimSuffix(baseURL, "/"),
		Token:   cfg.BotToken,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}

	return &Client{b}, nil
}

// IsChatMember reports whether the telegram user belongs to the public chat @username.
// telebot takes no context: when ctx ends first the call returns ctx.Err() at once, while the
// getChatMember request itself runs on until the client Timeout.
func (client *Client) IsChatMember(ctx context.Context, chat string, userID string) (bool, error) {
	chat = strings.TrimPrefix(chat, "@")

	type answer struct {
		member *tele.ChatMember
		err    error
	}
	done := make(chan answer, 1)
	go func() {
		member, err := client.bot.ChatMemberOf(recipient("@"+chat), recipient(userID))
		done <- answer{member, err}
	}()

	var res answer
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		// "user not found" and "chat not found" both land here; neither proves membership
		return false, fmt.Errorf("%w: telegram getChatMember @%s: %v", platform.ErrUnavailable, chat, res.err)
	}
	if res.member == nil {
		return false, nil
	}

	switch res.member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true, nil
	case tele.Restricted:
		return res.member.Member, nil
	}

	return false, nil
}
