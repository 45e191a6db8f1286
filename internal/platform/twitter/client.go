// Package twitter checks follows, likes and retweets through the X API v2.
package twitter

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

const (
	API_BASE_URL = "https://api.twitter.com"

	// bounds the number of pages read per membership check; a longer list answers ErrUnavailable
	MAX_PAGES = 5
)

type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	RetryCount  int
}

type Client struct {
	http        heimdall.Doer
	baseURL     string
	bearerToken string
	redisDB     redis.Cmdable
}

// New builds a client. redisDB may be nil, in which case username lookups are not cached.
func New(cfg Config, redisDB redis.Cmdable) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = API_BASE_URL
	}

	return &Client{
		http:        platform.NewHTTPClient(cfg.Timeout, cfg.RetryCount),
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		bearerToken: cfg.BearerToken,
		redisDB:     redisDB,
	}
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

type apiUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type userResp struct {
	Data   *apiUser   `json:"data"`
	Errors []apiError `json:"errors"`
}

type listResp struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
	Errors []apiError `json:"errors"`
}

// ResolveUserID turns a handle into the numeric account id.
func (client *Client) ResolveUserID(ctx context.Context, username string) (string, error) {
	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	if client.redisDB != nil {
		cached, err := redis_store.GetPlatformUser(ctx, client.redisDB, "twitter", username)
		if err == nil && cached != nil {
			return cached.ID, nil
		}
		if err != nil && err != redis.Nil {
			log.Println("twitter: read cached user", username, err)
		}
	}

	var body userResp
	err := client.get(ctx, fmt.Sprintf("/2/users/by/username/%s", url.PathEscape(username)), nil, &body)
	if err != nil {
		return "", err
	}

	if body.Data == nil || body.Data.ID == "" {
		return "", fmt.Errorf("%w: twitter user %s", platform.ErrNotFound, username)
	}

	if client.redisDB != nil {
		err = redis_store.SetPlatformUser(ctx, client.redisDB, "twitter", &redis_store.PlatformUser{
			ID:         body.Data.ID,
			Username:   username,
			ResolvedAt: time.Now(),
		})
		if err != nil {
			log.Println("twitter: cache user", username, err)
		}
	}

	return body.Data.ID, nil
}

// IsFollowing reports whether userID follows targetID. Only the first MAX_PAGES pages of 1000
// follows are read; when the list goes on past them the answer is ErrUnavailable, never false.
func (client *Client) IsFollowing(ctx context.Context, userID string, targetID string) (bool, error) {
	return client.scan(ctx, fmt.Sprintf("/2/users/%s/following", url.PathEscape(userID)), 1000, targetID)
}

// HasLiked reports whether userID liked tweetID.
func (client *Client) HasLiked(ctx context.Context, userID string, tweetID string) (bool, error) {
	return client.scan(ctx, fmt.Sprintf("/2/users/%s/liked_tweets", url.PathEscape(userID)), 100, tweetID)
}

// HasRetweeted reports whether userID is among the accounts that retweeted tweetID.
func (client *Client) HasRetweeted(ctx context.Context, userID string, tweetID string) (bool, error) {
	return client.scan(ctx, fmt.Sprintf("/2/tweets/%s/retweeted_by", url.PathEscape(tweetID)), 100, userID)
}

func (client *Client) scan(ctx context.Context, path string, pageSize int, wantID string) (bool, error) {
	token := ""
	for page := 0; page < MAX_PAGES; page++ {
		query := url.Values{}
		query.Set("max_results", fmt.Sprint(pageSize))
		if token != "" {
			query.Set("pagination_token", token)
		}

		var body listResp
		if err := client.get(ctx, path, query, &body); err != nil {
			return false, err
		}

		for _, item := range body.Data {
			if item.ID == wantID {
				return true, nil
			}
		}

		token = body.Meta.NextToken
		if token == "" {
			return false, nil
		}
	}

	return false, fmt.Errorf("%w: %s has more than %d pages", platform.ErrUnavailable, path, MAX_PAGES)
}

func (client *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := client.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+client.bearerToken)

	resp, err := client.http.Do(req)
	if err != nil {
		// heimdall hands back the last response along with the error after 5xx retries
		if resp != nil {
			resp.Body.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", platform.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", platform.ErrNotFound, path)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: twitter status %d", platform.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("twitter: unexpected status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Join(platform.ErrUnavailable, err)
	}

	return nil
}
