package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questboard/internal/interfaces"
	"questboard/internal/models"
)

var _ interfaces.Store = (*Store)(nil)

func TestFindOrCreateSubmissionKeepsOneRowPerUserTask(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.FindOrCreateSubmission(ctx, &models.UserTaskSubmission{ID: "s1", UserID: "u1", TaskID: "t1", QuestID: "q1", Status: models.SubmissionStatusPending})
	require.NoError(t, err)
	second, err := s.FindOrCreateSubmission(ctx, &models.UserTaskSubmission{ID: "s2", UserID: "u1", TaskID: "t1", QuestID: "q1", Status: models.SubmissionStatusPending})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	_, err = s.GetSubmission(ctx, "s2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSubmissionGuards(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_, err := s.FindOrCreateSubmission(ctx, &models.UserTaskSubmission{ID: "s1", UserID: "u1", TaskID: "t1", QuestID: "q1", Status: models.SubmissionStatusPending})
	require.NoError(t, err)

	ok, err := s.RemoveSubmissionXP(ctx, "s1", "reason", "admin", now)
	require.NoError(t, err)
	assert.False(t, ok, "pending rows have no XP to remove")

	ok, _ = s.MarkSubmissionVerified(ctx, "s1", 50, nil, now)
	assert.True(t, ok)
	ok, _ = s.MarkSubmissionVerified(ctx, "s1", 50, nil, now.Add(time.Minute))
	assert.False(t, ok)
	ok, _ = s.MarkSubmissionRejected(ctx, "s1", nil)
	assert.False(t, ok)
	ok, _ = s.MarkSubmissionPending(ctx, "s1", nil)
	assert.False(t, ok)

	ok, _ = s.RemoveSubmissionXP(ctx, "s1", "reason", "admin", now)
	assert.True(t, ok)
	ok, _ = s.RemoveSubmissionXP(ctx, "s1", "again", "admin", now)
	assert.False(t, ok)

	submission, err := s.GetSubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 50, submission.XPEarned)
	assert.Equal(t, 50, submission.XPRemoved)
	assert.Equal(t, "reason", *submission.XPRemovalReason)
	assert.WithinDuration(t, now, *submission.VerifiedAt, time.Millisecond)
}

func TestSumUserXPCountsVerifiedOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := s.FindOrCreateSubmission(ctx, &models.UserTaskSubmission{ID: "s-" + id, UserID: "u1", TaskID: id, QuestID: "q1", Status: models.SubmissionStatusPending})
		require.NoError(t, err)
	}

	s.MarkSubmissionVerified(ctx, "s-t1", 50, nil, now)
	s.MarkSubmissionVerified(ctx, "s-t2", 100, nil, now)
	s.MarkSubmissionRejected(ctx, "s-t3", nil)
	s.RemoveSubmissionXP(ctx, "s-t2", "manual review failed", "admin", now)

	total, err := s.SumUserXP(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, total)
}

func TestRecomputeUserTotalXP(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.RecomputeUserTotalXP(ctx, "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.FindOrCreateUser(ctx, &models.User{ID: "u1", Username: "u1"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateUserTotalXP(ctx, "u1", 999))

	_, err = s.FindOrCreateSubmission(ctx, &models.UserTaskSubmission{ID: "s1", UserID: "u1", TaskID: "t1", QuestID: "q1", Status: models.SubmissionStatusPending})
	require.NoError(t, err)
	s.MarkSubmissionVerified(ctx, "s1", 40, nil, time.Now())

	total, err := s.RecomputeUserTotalXP(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 40, total)

	user, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 40, user.TotalXP)
}
