package verifier

import (
	"context"
	"errors"

	"questboard/internal/catalog"
	"questboard/internal/models"
	"questboard/internal/platform"
)

func socialPayload(task *models.Task, want models.Platform) (*models.SocialPayload, error) {
	social, ok := task.Social()
	if !ok || social.Platform != want {
		return nil, configurationError("task %s is not a %s task", task.ID, want)
	}

	return social, nil
}

// platformError keeps context errors intact so the caller can tell a timeout from an outage.
func platformError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	return unavailableError(err)
}

func twitterAccount(api TwitterAPI, user *models.UserIdentity) (models.LinkedAccount, error) {
	if api == nil {
		return models.LinkedAccount{}, unavailableError(errors.New("twitter client is not configured"))
	}

	account, ok := user.Account(models.PlatformTwitter)
	if !ok {
		return models.LinkedAccount{}, identityError(models.PlatformTwitter)
	}

	return account, nil
}

func tweetID(task *models.Task) (string, error) {
	social, err := socialPayload(task, models.PlatformTwitter)
	if err != nil {
		return "", err
	}

	if social.TargetPostID != "" {
		return social.TargetPostID, nil
	}
	if id, ok := catalog.TweetIDFromURL(social.TargetURL); ok {
		return id, nil
	}

	return "", configurationError("task %s has no target post", task.ID)
}

type TwitterFollow struct {
	api TwitterAPI
}

func (s *TwitterFollow) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	social, err := socialPayload(task, models.PlatformTwitter)
	if err != nil {
		return nil, err
	}

	username := social.TargetUsername
	if username == "" {
		username, _ = catalog.TwitterUsernameFromURL(social.TargetURL)
	}
	username = catalog.NormalizeTwitterUsername(username)
	if username == "" {
		return nil, configurationError("task %s has no follow target", task.ID)
	}

	account, err := twitterAccount(s.api, user)
	if err != nil {
		return nil, err
	}

	targetID, err := s.api.ResolveUserID(ctx, username)
	if errors.Is(err, platform.ErrNotFound) {
		return nil, configurationError("twitter account %s does not exist", username)
	}
	if err != nil {
		return nil, platformError(err)
	}

	following, err := s.api.IsFollowing(ctx, account.PlatformUserID, targetID)
	if err != nil {
		return nil, platformError(err)
	}

	data := map[string]any{"twitter_user_id": account.PlatformUserID, "target_user_id": targetID}
	if !following {
		return Reject(DetailNotFollowing, data), nil
	}

	return Accept(targetID, data), nil
}

type TwitterLike struct {
	api TwitterAPI
}

func (s *TwitterLike) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	id, err := tweetID(task)
	if err != nil {
		return nil, err
	}

	account, err := twitterAccount(s.api, user)
	if err != nil {
		return nil, err
	}

	liked, err := s.api.HasLiked(ctx, account.PlatformUserID, id)
	if err != nil {
		return nil, platformError(err)
	}

	data := map[string]any{"twitter_user_id": account.PlatformUserID, "tweet_id": id}
	if !liked {
		return Reject(DetailNotLiked, data), nil
	}

	return Accept(id, data), nil
}

type TwitterRetweet struct {
	api TwitterAPI
}

func (s *TwitterRetweet) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	id, err := tweetID(task)
	if err != nil {
		return nil, err
	}

	account, err := twitterAccount(s.api, user)
	if err != nil {
		return nil, err
	}

	retweeted, err := s.api.HasRetweeted(ctx, account.PlatformUserID, id)
	if errors.Is(err, platform.ErrNotFound) {
		return nil, configurationError("tweet %s does not exist", id)
	}
	if err != nil {
		return nil, platformError(err)
	}

	data := map[string]any{"twitter_user_id": account.PlatformUserID, "tweet_id": id}
	if !retweeted {
		return Reject(DetailNotRetweeted, data), nil
	}

	return Accept(id, data), nil
}

type DiscordJoin struct {
	api DiscordAPI
}

func (s *DiscordJoin) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	social, err := socialPayload(task, models.PlatformDiscord)
	if err != nil {
		return nil, err
	}

	target, ok := catalog.DiscordTargetFromURL(social.TargetURL)
	if !ok {
		return nil, configurationError("task %s has no discord server", task.ID)
	}

	if s.api == nil {
		return nil, unavailableError(errors.New("discord client is not configured"))
	}

	account, ok := user.Account(models.PlatformDiscord)
	if !ok {
		return nil, identityError(models.PlatformDiscord)
	}

	guildID := target.GuildID
	if guildID == "" {
		guildID, err = s.api.ResolveInvite(ctx, target.InviteCode)
		if errors.Is(err, platform.ErrNotFound) {
			return nil, configurationError("discord invite %s is invalid", target.InviteCode)
		}
		if err != nil {
			return nil, platformError(err)
		}
	}

	member, err := s.api.IsGuildMember(ctx, guildID, account.PlatformUserID)
	if err != nil {
		return nil, platformError(err)
	}

	data := map[string]any{"discord_user_id": account.PlatformUserID, "guild_id": guildID}
	if !member {
		return Reject(DetailNotMember, data), nil
	}

	return Accept(guildID, data), nil
}

type TelegramJoin struct {
	api TelegramAPI
}

func (s *TelegramJoin) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	social, err := socialPayload(task, models.PlatformTelegram)
	if err != nil {
		return nil, err
	}

	chat, ok := catalog.TelegramChatFromURL(social.TargetURL)
	if !ok && social.TargetUsername != "" {
		chat, ok = social.TargetUsername, true
	}
	if !ok {
		return nil, configurationError("task %s has no telegram chat", task.ID)
	}

	if s.api == nil {
		return nil, unavailableError(errors.New("telegram client is not configured"))
	}

	account, ok := user.Account(models.PlatformTelegram)
	if !ok {
		return nil, identityError(models.PlatformTelegram)
	}

	member, err := s.api.IsChatMember(ctx, chat, account.PlatformUserID)
	if err != nil {
		return nil, platformError(err)
	}

	data := map[string]any{"telegram_user_id": account.PlatformUserID, "chat": chat}
	if !member {
		return Reject(DetailNotMember, data), nil
	}

	return Accept(chat, data), nil
}
