package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questboard/internal/models"
)

func draft(payload models.Payload) *models.TaskDraft {
	return &models.TaskDraft{
		QuestID:  "quest-1",
		Title:    "task",
		XPReward: 50,
		Payload:  models.TaskPayload{Payload: payload},
	}
}

func TestValidateTwitterLikeExtractsPostID(t *testing.T) {
	task, err := Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformTwitter,
		Action:    models.SocialActionLike,
		TargetURL: "https://x.com/questboard/status/1790000000000000000",
	}))
	require.NoError(t, err)

	social, ok := task.Social()
	require.True(t, ok)
	assert.Equal(t, "1790000000000000000", social.TargetPostID)
	assert.Equal(t, models.VerificationTwitterLike, task.VerificationType())
}

func TestValidateTwitterLikeWithoutTarget(t *testing.T) {
	_, err := Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformTwitter,
		Action:    models.SocialActionLike,
		TargetURL: "https://x.com/questboard",
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTask))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "payload.target_post_id", verr.Fields[0].Field)
}

func TestValidateTwitterFollowNormalizesHandle(t *testing.T) {
	task, err := Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformTwitter,
		Action:    models.SocialActionFollow,
		TargetURL: "https://twitter.com/QuestBoard",
	}))
	require.NoError(t, err)

	social, _ := task.Social()
	assert.Equal(t, "questboard", social.TargetUsername)
}

func TestValidateSocialActionPlatformMismatch(t *testing.T) {
	_, err := Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformDiscord,
		Action:    models.SocialActionFollow,
		TargetURL: "https://discord.gg/abc123",
	}))
	require.Error(t, err)
}

func TestValidateJoinTargets(t *testing.T) {
	_, err := Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformTelegram,
		Action:    models.SocialActionJoin,
		TargetURL: "https://t.me/questboard_news",
	}))
	require.NoError(t, err)

	_, err = Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformTelegram,
		Action:    models.SocialActionJoin,
		TargetURL: "https://t.me/+AbCdEf",
	}))
	require.Error(t, err)

	_, err = Validate(draft(&models.SocialPayload{
		Platform:  models.PlatformDiscord,
		Action:    models.SocialActionJoin,
		TargetURL: "https://example.com/server",
	}))
	require.Error(t, err)
}

func TestValidateLearn(t *testing.T) {
	task, err := Validate(draft(&models.LearnPayload{
		Question:       "2 + 2?",
		Answers:        []string{"3", "4"},
		CorrectAnswers: []int{1},
	}))
	require.NoError(t, err)

	learn, ok := task.Learn()
	require.True(t, ok)
	assert.Equal(t, DefaultPassingScore, learn.PassingScore)

	cases := map[string]*models.LearnPayload{
		"one answer":          {Question: "q", Answers: []string{"a"}, CorrectAnswers: []int{0}},
		"five answers":        {Question: "q", Answers: []string{"a", "b", "c", "d", "e"}, CorrectAnswers: []int{0}},
		"no correct answer":   {Question: "q", Answers: []string{"a", "b"}},
		"out of range":        {Question: "q", Answers: []string{"a", "b"}, CorrectAnswers: []int{2}},
		"single with two":     {Question: "q", Answers: []string{"a", "b"}, CorrectAnswers: []int{0, 1}},
		"empty question":      {Answers: []string{"a", "b"}, CorrectAnswers: []int{0}},
		"passing score > 100": {Question: "q", Answers: []string{"a", "b"}, CorrectAnswers: []int{0}, PassingScore: 120},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(draft(payload))
			require.Error(t, err)
		})
	}
}

func TestValidateRejectsMissingPayloadAndReward(t *testing.T) {
	d := draft(nil)
	d.XPReward = 0

	_, err := Validate(d)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestValidateVisitURL(t *testing.T) {
	_, err := Validate(draft(&models.VisitPayload{URL: "ftp://example.com"}))
	require.Error(t, err)

	task, err := Validate(draft(&models.VisitPayload{URL: "https://example.com", MinDurationSeconds: 20}))
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVisit, task.VerificationType())
}
