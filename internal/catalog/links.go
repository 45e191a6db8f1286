package catalog

import (
	"regexp"
	"strings"
)

var (
	reTweetURL       = regexp.MustCompile(`(?:twitter\.com|x\.com)/[^/]+/status(?:es)?/(\d+)`)
	reTwitterProfile = regexp.MustCompile(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})(?:/status/\d+)?/?(?:\?.*)?$`)
	reTwitterHandle  = regexp.MustCompile(`^@?([A-Za-z0-9_]{1,15})$`)
	reTweetID        = regexp.MustCompile(`^\d+$`)
	reTelegramLink   = regexp.MustCompile(`^(?:|(https?:\/\/)?(|www)[.]?((t|telegram)\.me)\/)([a-zA-Z0-9_+-]+)$`)
	reDiscordGuild   = regexp.MustCompile(`discord(?:app)?\.com/channels/(\d+)`)
	reDiscordInvite  = regexp.MustCompile(`(?:discord\.gg|discord(?:app)?\.com/invite)/([a-zA-Z0-9-]+)`)
)

// TweetIDFromURL extracts the status id of a twitter.com or x.com post link.
func TweetIDFromURL(url string) (string, bool) {
	matches := reTweetURL.FindStringSubmatch(strings.TrimSpace(url))
	if len(matches) != 2 {
		return "", false
	}

	return matches[1], true
}

func IsTweetID(id string) bool {
	return reTweetID.MatchString(id)
}

// TwitterUsernameFromURL accepts a profile link, a post link or a bare handle.
func TwitterUsernameFromURL(url string) (string, bool) {
	url = strings.TrimSpace(url)
	if matches := reTwitterHandle.FindStringSubmatch(url); len(matches) == 2 {
		return matches[1], true
	}

	matches := reTwitterProfile.FindStringSubmatch(url)
	if len(matches) != 2 || matches[1] == "i" {
		return "", false
	}

	return matches[1], true
}

// NormalizeTwitterUsername strips a leading @ and lowercases the handle.
func NormalizeTwitterUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// TelegramChatFromURL returns the public chat username of a t.me link, without the @.
func TelegramChatFromURL(url string) (string, bool) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	if strings.HasPrefix(url, "@") {
		url = url[1:]
	}

	matches := reTelegramLink.FindStringSubmatch(url)
	if len(matches) != 6 || strings.HasPrefix(matches[5], "+") {
		return "", false
	}

	return matches[5], true
}

type DiscordTarget struct {
	GuildID    string
	InviteCode string
}

// DiscordTargetFromURL reads either a guild id from a channel link or an invite code.
func DiscordTargetFromURL(url string) (DiscordTarget, bool) {
	url = strings.TrimSpace(url)
	if matches := reDiscordGuild.FindStringSubmatch(url); len(matches) == 2 {
		return DiscordTarget{GuildID: matches[1]}, true
	}

	if matches := reDiscordInvite.FindStringSubmatch(url); len(matches) == 2 {
		return DiscordTarget{InviteCode: matches[1]}, true
	}

	if reTweetID.MatchString(url) {
		return DiscordTarget{GuildID: url}, true
	}

	return DiscordTarget{}, false
}
