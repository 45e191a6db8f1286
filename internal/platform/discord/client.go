// Package discord checks guild membership with a bot token.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/redis/go-redis/v9"

	"questboard/internal/datastore/redis_store"
	"questboard/internal/platform"
)

const API_BASE_URL = "https://discord.com/api/v10"

type Config struct {
	BaseURL    string
	BotToken   string
	Timeout    time.Duration
	RetryCount int
}

type Client struct {
	http     heimdall.Doer
	baseURL  string
	botToken string
	redisDB  redis.Cmdable
}

func New(cfg Config, redisDB redis.Cmdable) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = API_BASE_URL
	}

	return &Client{
		http:     platform.NewHTTPClient(cfg.Timeout, cfg.RetryCount),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		botToken: cfg.BotToken,
		redisDB:  redisDB,
	}
}

type inviteResp struct {
	Code  string `json:"code"`
	Guild *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"guild"`
}

// ResolveInvite returns the guild an invite code points to.
func (client *Client) ResolveInvite(ctx context.Context, code string) (string, error) {
	if client.redisDB != nil {
		guildID, err := redis_store.GetDiscordInviteGuild(ctx, client.redisDB, code)
		if err == nil && guildID != "" {
			return guildID, nil
		}
	}

	resp, err := client.do(ctx, fmt.Sprintf("/invites/%s", url.PathEscape(code)))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: discord invite %s", platform.ErrNotFound, code)
	}
	if err := statusError(resp); err != nil {
		return "", err
	}

	var body inviteResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Join(platform.ErrUnavailable, err)
	}
	if body.Guild == nil || body.Guild.ID == "" {
		return "", fmt.Errorf("%w: discord invite %s has no guild", platform.ErrNotFound, code)
	}

	if client.redisDB != nil {
		if err := redis_store.SetDiscordInviteGuild(ctx, client.redisDB, code, body.Guild.ID); err != nil {
			log.Println("discord: cache invite", code, err)
		}
	}

	return body.Guild.ID, nil
}

// IsGuildMember asks for the member record; 404 means the user is not in the guild.
func (client *Client) IsGuildMember(ctx context.Context, guildID string, userID string) (bool, error) {
	resp, err := client.do(ctx, fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(guildID), url.PathEscape(userID)))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := statusError(resp); err != nil {
		return false, err
	}

	return true, nil
}

func (client *Client) do(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+client.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", platform.ErrUnavailable, err)
	}

	return resp, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: discord status %d", platform.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// the bot is not in the guild or the token is wrong
		return fmt.Errorf("%w: discord status %d", platform.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("discord: unexpected status %d", resp.StatusCode)
	}

	return nil
}
