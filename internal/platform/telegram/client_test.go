package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questboard/internal/platform"
)

func newTestClient(t *testing.T, statuses map[string]string) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/bottoken/getChatMember"), r.URL.Path)

		var params map[string]string
		_ = json.NewDecoder(r.Body).Decode(&params)
		assert.Equal(t, "@questboard_news", params["chat_id"])

		status, ok := statuses[params["user_id"]]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":          false,
				"error_code":  400,
				"description": "Bad Request: user not found",
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"status": status,
				"user":   map[string]any{"id": 1},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL, BotToken: "token", Timeout: time.Second})
	require.NoError(t, err)
	return client
}

func TestIsChatMember(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"1": "member",
		"2": "left",
		"3": "administrator",
		"4": "kicked",
	})

	ctx := context.Background()
	for userID, want := range map[string]bool{"1": true, "2": false, "3": true, "4": false} {
		got, err := client.IsChatMember(ctx, "questboard_news", userID)
		require.NoError(t, err, userID)
		assert.Equal(t, want, got, userID)
	}
}

func TestIsChatMemberApiErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, map[string]string{})

	_, err := client.IsChatMember(context.Background(), "@questboard_news", "9")
	assert.True(t, errors.Is(err, platform.ErrUnavailable))
}

func TestIsChatMemberReturnsWhenContextEnds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"status": "member", "user": map[string]any{"id": 1}}})
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL, BotToken: "token", Timeout: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.IsChatMember(ctx, "questboard_news", "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
