package redis_store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	_, err := GetPlatformUser(ctx, client, "twitter", "AcmeDev")
	require.ErrorIs(t, err, redis.Nil)

	resolvedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, SetPlatformUser(ctx, client, "twitter", &PlatformUser{ID: "42", Username: "AcmeDev", ResolvedAt: resolvedAt}))

	// handles are case insensitive
	v, err := GetPlatformUser(ctx, client, "twitter", "acmedev")
	require.NoError(t, err)
	assert.Equal(t, "42", v.ID)
	assert.True(t, resolvedAt.Equal(v.ResolvedAt))

	mr.FastForward(PLATFORM_USER_TTL + time.Second)
	_, err = GetPlatformUser(ctx, client, "twitter", "acmedev")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestDiscordInviteGuild(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	require.NoError(t, SetDiscordInviteGuild(ctx, client, "acme", "9001"))
	guildID, err := GetDiscordInviteGuild(ctx, client, "acme")
	require.NoError(t, err)
	assert.Equal(t, "9001", guildID)
}
