package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"questboard/internal/models"
)

func TestGradeMultiSelect(t *testing.T) {
	task := &models.LearnPayload{
		Answers:        []string{"a", "b", "c", "d"},
		CorrectAnswers: []int{0, 2},
		MultiSelect:    true,
	}

	assert.True(t, Grade(task, []int{0, 2}).Passed)
	assert.True(t, Grade(task, []int{2, 0}).Passed)
	assert.False(t, Grade(task, []int{0}).Passed)
	assert.False(t, Grade(task, []int{0, 1, 2}).Passed)
	assert.False(t, Grade(task, nil).Passed)
}

func TestGradeSingleSelect(t *testing.T) {
	task := &models.LearnPayload{
		Answers:        []string{"a", "b"},
		CorrectAnswers: []int{1},
	}

	result := Grade(task, []int{1})
	assert.True(t, result.Passed)
	assert.Equal(t, 100, result.Score)

	assert.False(t, Grade(task, []int{0}).Passed)
	assert.False(t, Grade(task, []int{0, 1}).Passed)
	assert.False(t, Grade(task, []int{1, 1}).Passed)
	assert.Equal(t, 0, Grade(task, []int{0}).Score)
}

func TestGradeWithoutCorrectAnswers(t *testing.T) {
	assert.False(t, Grade(&models.LearnPayload{Answers: []string{"a", "b"}}, []int{0}).Passed)
	assert.False(t, Grade(nil, []int{0}).Passed)
}
