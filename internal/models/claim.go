package models

// Claim is what the client asserts when asking for a task to be verified.
type Claim struct {
	Type            VerificationType `json:"type"`
	TaskID          string           `json:"taskId"`
	UserID          string           `json:"userId,omitempty"`
	DurationSeconds int              `json:"durationSeconds,omitempty"`
	Completed       bool             `json:"completed,omitempty"`
	SelectedIndices []int            `json:"selectedIndices,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}
