package models

type GradingEventType string

const (
	GradingEventRolled  GradingEventType = "grading.rolled"
	GradingEventUndone  GradingEventType = "grading.undone"
	GradingEventCleared GradingEventType = "grading.cleared"
)

func (t GradingEventType) String() string {
	return string(t)
}

type GradingEvent struct {
	EventID      string           `json:"event_id"`
	Type         GradingEventType `json:"type"`
	AssignmentID string           `json:"assignment_id,omitempty"`
	RollID       string           `json:"roll_id,omitempty"`
	GraderCount  int              `json:"grader_count,omitempty"`
	Repositories int              `json:"repositories,omitempty"`
	Timestamp    int64            `json:"timestamp"`
}
