package notice

import (
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	Info  Level = "info"
	Error Level = "error"
)

// Notice is a short non-blocking message for the user.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Board keeps the most recent notices. Posting never blocks and never fails.
type Board struct {
	mu      sync.Mutex
	limit   int
	notices []Notice
	now     func() time.Time
}

// NewBoard creates a board that keeps at most limit notices.
func NewBoard(limit int) *Board {
	if limit <= 0 {
		limit = 50
	}
	return &Board{limit: limit, now: time.Now}
}

// Post adds a notice, dropping the oldest one when the board is full.
func (b *Board) Post(level Level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, Notice{Level: level, Message: message, At: b.now().UTC()})
	if over := len(b.notices) - b.limit; over > 0 {
		b.notices = append(b.notices[:0:0], b.notices[over:]...)
	}
}

// Recent returns up to n notices, newest first.
func (b *Board) Recent(n int) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > len(b.notices) {
		n = len(b.notices)
	}
	out := make([]Notice, 0, n)
	for i := len(b.notices) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, b.notices[i])
	}
	return out
}
