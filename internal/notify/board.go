// Package notify keeps the user-facing notices raised by the story controllers.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyfeed/internal/domain"
)

// Board holds notices in the order they were raised and logs every transition.
type Board struct {
	mu      sync.Mutex
	notices []domain.Notice
	index   map[string]int
	now     func() time.Time
	logger  *slog.Logger
}

func NewBoard(logger *slog.Logger) *Board {
	return &Board{
		index:  make(map[string]int),
		now:    time.Now,
		logger: logger.With("component", "notify"),
	}
}

func (b *Board) Success(op, msg string) { b.push(op, domain.NoticeSuccess, msg) }
func (b *Board) Error(op, msg string)   { b.push(op, domain.NoticeError, msg) }
func (b *Board) Info(op, msg string)    { b.push(op, domain.NoticeInfo, msg) }

// Loading raises a pending notice and returns its id for Resolve.
func (b *Board) Loading(op, msg string) string {
	return b.push(op, domain.NoticeLoading, msg)
}

// Resolve moves a notice to a terminal level in place. Unknown ids raise a new notice instead.
func (b *Board) Resolve(id string, level domain.NoticeLevel, msg string) {
	b.mu.Lock()
	i, ok := b.index[id]
	if !ok {
		b.mu.Unlock()
		b.push("", level, msg)
		return
	}

	n := &b.notices[i]
	n.Level = level
	n.Message = msg
	n.UpdatedAt = b.now()
	resolved := *n
	b.mu.Unlock()

	b.log(resolved)
}

// Notices returns a copy of every notice raised so far.
func (b *Board) Notices() []domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Last returns the most recent notice for op.
func (b *Board) Last(op string) (domain.Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.notices) - 1; i >= 0; i-- {
		if b.notices[i].Operation == op {
			return b.notices[i], true
		}
	}
	return domain.Notice{}, false
}

func (b *Board) push(op string, level domain.NoticeLevel, msg string) string {
	n := domain.Notice{
		ID:        uuid.NewString(),
		Operation: op,
		Level:     level,
		Message:   msg,
		UpdatedAt: b.now(),
	}

	b.mu.Lock()
	b.index[n.ID] = len(b.notices)
	b.notices = append(b.notices, n)
	b.mu.Unlock()

	b.log(n)
	return n.ID
}

func (b *Board) log(n domain.Notice) {
	attrs := []any{"operation", n.Operation, "notice_id", n.ID, "level", n.Level}

	switch n.Level {
	case domain.NoticeError:
		b.logger.Error(n.Message, attrs...)
	case domain.NoticeLoading:
		b.logger.Debug(n.Message, attrs...)
	default:
		b.logger.Info(n.Message, attrs...)
	}
}
