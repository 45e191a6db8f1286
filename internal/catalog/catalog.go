// Package catalog checks task drafts against the shape each task kind requires.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"questboard/internal/models"
)

const (
	MinLearnAnswers     = 2
	MaxLearnAnswers     = 4
	DefaultPassingScore = 80
)

var ErrInvalidTask = errors.New("invalid task")

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every problem found in a draft.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}

	return fmt.Sprintf("%s: %s", ErrInvalidTask, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTask
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Validate returns a normalized task built from the draft. Target references that can be read
// from the task links (tweet ids, handles) are filled in. The returned task has no id yet.
func Validate(draft *models.TaskDraft) (*models.Task, error) {
	verr := &ValidationError{}
	if draft == nil {
		verr.add("draft", "missing")
		return nil, verr
	}

	if strings.TrimSpace(draft.QuestID) == "" {
		verr.add("quest_id", "required")
	}

	if draft.XPReward <= 0 {
		verr.add("xp_reward", "must be a positive integer")
	}

	if draft.OrderIndex < 0 {
		verr.add("order_index", "must not be negative")
	}

	var payload models.Payload
	switch p := draft.Payload.Payload.(type) {
	case *models.SocialPayload:
		payload = validateSocial(verr, p)
	case *models.VisitPayload:
		if !validURL(p.URL) {
			verr.add("payload.url", "must be an http(s) url")
		}
		if p.MinDurationSeconds < 0 {
			verr.add("payload.min_duration_seconds", "must not be negative")
		}
		c := *p
		payload = &c
	case *models.DownloadPayload:
		if !validURL(p.URL) {
			verr.add("payload.url", "must be an http(s) url")
		}
		c := *p
		payload = &c
	case *models.FormPayload:
		if !validURL(p.URL) {
			verr.add("payload.url", "must be an http(s) url")
		}
		c := *p
		payload = &c
	case *models.LearnPayload:
		payload = validateLearn(verr, p)
	case nil:
		verr.add("payload", "required")
	default:
		verr.add("payload", fmt.Sprintf("unsupported kind %q", p.Kind()))
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	return &models.Task{
		QuestID:     strings.TrimSpace(draft.QuestID),
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		OrderIndex:  draft.OrderIndex,
		XPReward:    draft.XPReward,
		Payload:     models.TaskPayload{Payload: payload},
	}, nil
}

func validateSocial(verr *ValidationError, p *models.SocialPayload) *models.SocialPayload {
	c := *p
	c.TargetURL = strings.TrimSpace(c.TargetURL)

	switch c.Platform {
	case models.PlatformTwitter:
		switch c.Action {
		case models.SocialActionFollow:
			if c.TargetUsername == "" {
				c.TargetUsername, _ = TwitterUsernameFromURL(c.TargetURL)
			}
			c.TargetUsername = NormalizeTwitterUsername(c.TargetUsername)
			if c.TargetUsername == "" {
				verr.add("payload.target_username", "required for follow, or a profile url")
			}
		case models.SocialActionLike, models.SocialActionRetweet:
			if c.TargetPostID == "" {
				c.TargetPostID, _ = TweetIDFromURL(c.TargetURL)
			}
			if !IsTweetID(c.TargetPostID) {
				verr.add("payload.target_post_id", fmt.Sprintf("required for %s, or a post url", c.Action))
			}
		default:
			verr.add("payload.action", fmt.Sprintf("%q is not supported on twitter", c.Action))
		}
	case models.PlatformDiscord:
		if c.Action != models.SocialActionJoin {
			verr.add("payload.action", fmt.Sprintf("%q is not supported on discord", c.Action))
		}
		if _, ok := DiscordTargetFromURL(c.TargetURL); !ok {
			verr.add("payload.target_url", "must be a discord invite or channel url")
		}
	case models.PlatformTelegram:
		if c.Action != models.SocialActionJoin {
			verr.add("payload.action", fmt.Sprintf("%q is not supported on telegram", c.Action))
		}
		if _, ok := TelegramChatFromURL(c.TargetURL); !ok {
			verr.add("payload.target_url", "must be a public t.me link")
		}
	default:
		verr.add("payload.platform", fmt.Sprintf("unsupported platform %q", c.Platform))
	}

	return &c
}

func validateLearn(verr *ValidationError, p *models.LearnPayload) *models.LearnPayload {
	c := *p
	c.Question = strings.TrimSpace(c.Question)
	if c.Question == "" {
		verr.add("payload.question", "required")
	}

	if len(c.Answers) < MinLearnAnswers || len(c.Answers) > MaxLearnAnswers {
		verr.add("payload.answers", fmt.Sprintf("must have between %d and %d answers", MinLearnAnswers, MaxLearnAnswers))
	}
	c.Answers = append([]string(nil), c.Answers...)
	for i, answer := range c.Answers {
		c.Answers[i] = strings.TrimSpace(answer)
		if c.Answers[i] == "" {
			verr.add(fmt.Sprintf("payload.answers[%d]", i), "must not be empty")
		}
	}

	if len(c.CorrectAnswers) == 0 {
		verr.add("payload.correct_answers", "must not be empty")
	}
	seen := make(map[int]bool, len(c.CorrectAnswers))
	c.CorrectAnswers = append([]int(nil), c.CorrectAnswers...)
	for _, index := range c.CorrectAnswers {
		if index < 0 || index >= len(c.Answers) {
			verr.add("payload.correct_answers", fmt.Sprintf("index %d out of range", index))
			continue
		}
		if seen[index] {
			verr.add("payload.correct_answers", fmt.Sprintf("index %d repeated", index))
		}
		seen[index] = true
	}

	if !c.MultiSelect && len(c.CorrectAnswers) > 1 {
		verr.add("payload.correct_answers", "single-select questions take exactly one correct answer")
	}

	if c.PassingScore == 0 {
		c.PassingScore = DefaultPassingScore
	}
	if c.PassingScore < 0 || c.PassingScore > 100 {
		verr.add("payload.passing_score", "must be a percentage")
	}

	return &c
}

func validURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
