package utils

import (
	"sync"
	"time"
)

// IDSequence hands out epoch-millisecond ids that never repeat within the
// process, even when several are requested in the same millisecond.
type IDSequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDSequence returns a sequence driven by the wall clock.
func NewIDSequence() *IDSequence {
	return NewIDSequenceWithClock(time.Now)
}

// NewIDSequenceWithClock returns a sequence reading time from now.
func NewIDSequenceWithClock(now func() time.Time) *IDSequence {
	return &IDSequence{now: now}
}

// Next returns a fresh id strictly greater than every id returned before.
func (s *IDSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
