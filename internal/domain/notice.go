package domain

import "time"

type NoticeLevel string

const (
	NoticeLoading NoticeLevel = "loading"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a user-facing toast. Loading notices are resolved in place to a terminal level.
type Notice struct {
	ID        string
	Operation string
	Level     NoticeLevel
	Message   string
	UpdatedAt time.Time
}

func (n Notice) Pending() bool {
	return n.Level == NoticeLoading
}
