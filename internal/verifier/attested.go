package verifier

import (
	"context"

	"questboard/internal/models"
	"questboard/internal/quiz"
)

// Visit trusts the elapsed time reported by the client. Nothing on the server observes the
// visit, so the duration can be forged by anyone calling the API directly.
type Visit struct{}

func (Visit) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	visit, ok := task.Visit()
	if !ok {
		return nil, configurationError("task %s is not a visit task", task.ID)
	}

	data := map[string]any{
		"duration_seconds":     claim.DurationSeconds,
		"min_duration_seconds": visit.MinDurationSeconds,
	}
	if claim.DurationSeconds < visit.MinDurationSeconds {
		return Reject(DetailDurationTooShort, data), nil
	}

	return Accept("", data), nil
}

// Attested accepts download and form tasks on the client's word that the action was done.
type Attested struct{}

func (Attested) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	switch task.Kind() {
	case models.TaskKindDownload, models.TaskKindForm:
	default:
		return nil, configurationError("task %s is not a download or form task", task.ID)
	}

	data := map[string]any{"completed": claim.Completed}
	if !claim.Completed {
		return Reject(DetailNotPerformed, data), nil
	}

	return Accept("", data), nil
}

type Learn struct{}

func (Learn) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	learn, ok := task.Learn()
	if !ok {
		return nil, configurationError("task %s is not a learn task", task.ID)
	}

	result := quiz.Grade(learn, claim.SelectedIndices)
	data := map[string]any{
		"selected_indices": claim.SelectedIndices,
		"score":            result.Score,
		"passing_score":    learn.PassingScore,
	}
	if !result.Passed || result.Score < learn.PassingScore {
		return Reject(DetailQuizFailed, data), nil
	}

	return Accept("", data), nil
}
