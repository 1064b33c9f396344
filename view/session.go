package view

import "sync"

// Session is one viewer's scroll state.
// It starts following the newest line; a manual scroll turns following off
// until Reset.
type Session struct {
	sync.Mutex
	ScrollPosition int  `json:"scroll_position"`
	AutoFollow     bool `json:"auto_follow"`
}

// NewSession .
func NewSession() *Session {
	return &Session{AutoFollow: true}
}

// Scroll records a manual scroll to offset
func (s *Session) Scroll(offset int) {
	s.Lock()
	defer s.Unlock()
	if offset < 0 {
		offset = 0
	}
	s.AutoFollow = false
	s.ScrollPosition = offset
}

// Place returns the offset to show after a refresh with content of the given height
func (s *Session) Place(contentHeight int) int {
	s.Lock()
	defer s.Unlock()
	if s.AutoFollow {
		s.ScrollPosition = contentHeight
	}
	return s.ScrollPosition
}

// Reset re-enables auto follow
func (s *Session) Reset() {
	s.Lock()
	defer s.Unlock()
	s.AutoFollow = true
	s.ScrollPosition = 0
}

// State returns a copy of the current state
func (s *Session) State() (scrollPosition int, autoFollow bool) {
	s.Lock()
	defer s.Unlock()
	return s.ScrollPosition, s.AutoFollow
}
