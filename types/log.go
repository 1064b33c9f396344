package types

import (
	"strings"
	"time"

	"github.com/projecteru2/logview/common"
)

// PollResultKind tags a PollResult
type PollResultKind int

const (
	// PollData means the source returned some text
	PollData PollResultKind = iota
	// PollEmpty means the source answered but has nothing
	PollEmpty
	// PollError means the source failed, the buffer must stay as it is
	PollError
)

func (k PollResultKind) String() string {
	switch k {
	case PollData:
		return "data"
	case PollEmpty:
		return "empty"
	case PollError:
		return "error"
	}
	return "unknown"
}

// PollResult is the outcome of one fetch
type PollResult struct {
	Kind PollResultKind
	Text string
	// Incremental results carry only what was appended since the previous fetch
	Incremental bool
	Err         error
}

// DataResult .
func DataResult(text string) PollResult {
	return PollResult{Kind: PollData, Text: text}
}

// AppendResult .
func AppendResult(text string) PollResult {
	return PollResult{Kind: PollData, Text: text, Incremental: true}
}

// EmptyResult .
func EmptyResult() PollResult {
	return PollResult{Kind: PollEmpty}
}

// ErrorResult .
func ErrorResult(err error) PollResult {
	return PollResult{Kind: PollError, Err: err}
}

// Snapshot is an immutable copy of the buffer
type Snapshot struct {
	Text       string    `json:"text"`
	Lines      int       `json:"lines"`
	Bytes      int       `json:"bytes"`
	Generation uint64    `json:"generation"`
	Empty      bool      `json:"empty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Content returns what a viewer should display
func (s Snapshot) Content() string {
	if s.Empty {
		return common.NoLogData
	}
	return s.Text
}

// Tail returns the display content limited to the last n lines, n <= 0 means all
func (s Snapshot) Tail(n int) string {
	if s.Empty || n <= 0 || n >= s.Lines {
		return s.Content()
	}
	text := s.Text
	for i := 0; i < n; i++ {
		idx := strings.LastIndexByte(text, '\n')
		if idx < 0 {
			return s.Text
		}
		text = text[:idx]
	}
	return s.Text[len(text)+1:]
}

// Status describes the log view state for admin tooling
type Status struct {
	Source        string    `json:"source"`
	Generation    uint64    `json:"generation"`
	Lines         int       `json:"lines"`
	Bytes         int       `json:"bytes"`
	Size          string    `json:"size"`
	Empty         bool      `json:"empty"`
	Polling       bool      `json:"polling"`
	LastPoll      time.Time `json:"last_poll"`
	LastSuccess   time.Time `json:"last_success"`
	LastErrorKind string    `json:"last_error_kind,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	Polls         uint64    `json:"polls"`
	Failures      uint64    `json:"failures"`
	Skipped       uint64    `json:"skipped"`
	Stale         uint64    `json:"stale"`
	Clears        uint64    `json:"clears"`
	Sessions      int       `json:"sessions"`
	Memory        string    `json:"memory,omitempty"`
}
