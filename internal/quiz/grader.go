// Package quiz grades answers to learn tasks.
package quiz

import "questboard/internal/models"

type Result struct {
	Passed bool `json:"passed"`
	// Score is 100 for a passing answer and 0 otherwise; a question is all or nothing.
	Score int `json:"score"`
}

// Grade compares the selected answer indices with the correct ones. Single-select passes only
// with exactly one correct index; multi-select requires the exact correct set.
func Grade(task *models.LearnPayload, selected []int) Result {
	if task == nil || len(task.CorrectAnswers) == 0 {
		return Result{}
	}

	picked := make(map[int]struct{}, len(selected))
	for _, index := range selected {
		picked[index] = struct{}{}
	}

	correct := make(map[int]struct{}, len(task.CorrectAnswers))
	for _, index := range task.CorrectAnswers {
		correct[index] = struct{}{}
	}

	var passed bool
	if task.MultiSelect {
		passed = sameSet(picked, correct)
	} else {
		passed = len(selected) == 1 && len(picked) == 1 && contains(correct, selected[0])
	}

	if !passed {
		return Result{}
	}

	return Result{Passed: true, Score: 100}
}

func contains(set map[int]struct{}, index int) bool {
	_, ok := set[index]
	return ok
}

func sameSet(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}

	for index := range a {
		if !contains(b, index) {
			return false
		}
	}

	return true
}
