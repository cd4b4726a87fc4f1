package domain

import "time"

type EventAction string

const (
	ActionCreate EventAction = "create"
	ActionUpdate EventAction = "update"
	ActionDelete EventAction = "delete"
)

// StoryEvent announces a change to the remote feed so other views can refresh.
type StoryEvent struct {
	Action    EventAction `json:"action"`
	Story     Story       `json:"story"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewStoryEvent(action EventAction, story Story) *StoryEvent {
	return &StoryEvent{
		Action:    action,
		Story:     story,
		Timestamp: time.Now().UTC(),
	}
}
