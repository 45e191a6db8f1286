package redis_store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const PLATFORM_USER_TTL = 24 * time.Hour

// PlatformUser is a platform handle resolved to the platform's own user id.
type PlatformUser struct {
	ID         string    `msgpack:"id"`
	Username   string    `msgpack:"username"`
	ResolvedAt time.Time `msgpack:"resolved_at"`
}

func dbKeyPlatformUser(platform string, username string) string {
	return fmt.Sprintf("platform_user:%s:%s", platform, strings.ToLower(username))
}

func dbKeyDiscordInvite(code string) string {
	return fmt.Sprintf("discord_invite:%s", code)
}

func GetPlatformUser(ctx context.Context, cmd redis.Cmdable, platform string, username string) (*PlatformUser, error) {
	var v *PlatformUser
	b, err := cmd.Get(ctx, dbKeyPlatformUser(platform, username)).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}

func SetPlatformUser(ctx context.Context, cmd redis.Cmdable, platform string, v *PlatformUser) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyPlatformUser(platform, v.Username), b, PLATFORM_USER_TTL).Err()
}

func GetDiscordInviteGuild(ctx context.Context, cmd redis.Cmdable, code string) (string, error) {
	return cmd.Get(ctx, dbKeyDiscordInvite(code)).Result()
}

func SetDiscordInviteGuild(ctx context.Context, cmd redis.Cmdable, code string, guildID string) error {
	return cmd.Set(ctx, dbKeyDiscordInvite(code), guildID, PLATFORM_USER_TTL).Err()
}
