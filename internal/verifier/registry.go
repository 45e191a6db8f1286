package verifier

import (
	"context"

	"questboard/internal/models"
)

type TwitterAPI interface {
	ResolveUserID(ctx context.Context, username string) (string, error)
	IsFollowing(ctx context.Context, userID string, targetID string) (bool, error)
	HasLiked(ctx context.Context, userID string, tweetID string) (bool, error)
	HasRetweeted(ctx context.Context, userID string, tweetID string) (bool, error)
}

type DiscordAPI interface {
	ResolveInvite(ctx context.Context, code string) (string, error)
	IsGuildMember(ctx context.Context, guildID string, userID string) (bool, error)
}

type TelegramAPI interface {
	IsChatMember(ctx context.Context, chat string, userID string) (bool, error)
}

// Clients are the platform APIs the social strategies call. A nil client makes its
// strategies answer unavailable.
type Clients struct {
	Twitter  TwitterAPI
	Discord  DiscordAPI
	Telegram TelegramAPI
}

type entry struct {
	strategy Strategy
	external bool
}

type Registry struct {
	entries map[models.VerificationType]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[models.VerificationType]entry{}}
}

// Register binds a strategy to a verification type. external marks strategies that call a
// platform API and are therefore rate limited.
func (registry *Registry) Register(kind models.VerificationType, strategy Strategy, external bool) {
	registry.entries[kind] = entry{strategy, external}
}

func (registry *Registry) Lookup(kind models.VerificationType) (Strategy, bool) {
	e, ok := registry.entries[kind]
	return e.strategy, ok
}

func (registry *Registry) External(kind models.VerificationType) bool {
	return registry.entries[kind].external
}

// NewDefaultRegistry registers a strategy for every verification type.
func NewDefaultRegistry(clients Clients) *Registry {
	registry := NewRegistry()

	registry.Register(models.VerificationTwitterFollow, &TwitterFollow{clients.Twitter}, true)
	registry.Register(models.VerificationTwitterLike, &TwitterLike{clients.Twitter}, true)
	registry.Register(models.VerificationTwitterRetweet, &TwitterRetweet{clients.Twitter}, true)
	registry.Register(models.VerificationDiscordJoin, &DiscordJoin{clients.Discord}, true)
	registry.Register(models.VerificationTelegramJoin, &TelegramJoin{clients.Telegram}, true)
	registry.Register(models.VerificationVisit, Visit{}, false)
	registry.Register(models.VerificationDownload, Attested{}, false)
	registry.Register(models.VerificationForm, Attested{}, false)
	registry.Register(models.VerificationLearn, Learn{}, false)

	return registry
}
