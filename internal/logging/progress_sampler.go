package logging

import "fmt"

// ProgressSampler thins generation progress logging. An event is logged when
// it moves into a new stage or episode, or crosses a percentage step.
type ProgressSampler struct {
	step    float64
	segment string
	reached int
}

// NewProgressSampler returns a sampler that logs every step percentage points
// within a segment. A non-positive step defaults to 5.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, reached: -1}
}

// ShouldLog reports whether the event should be logged. Fraction is overall
// completion in [0,1]; episode is 0 outside a series.
func (s *ProgressSampler) ShouldLog(fraction float64, stage string, episode int) bool {
	if s == nil {
		return true
	}
	segment := fmt.Sprintf("%s#%d", stage, episode)
	if segment != s.segment {
		s.segment = segment
		s.reached = s.stepOf(fraction)
		return true
	}
	if n := s.stepOf(fraction); n > s.reached {
		s.reached = n
		return true
	}
	return false
}

func (s *ProgressSampler) stepOf(fraction float64) int {
	if fraction < 0 {
		return s.reached
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(fraction * 100 / s.step)
}

// Reset forgets the last segment so the next event is always logged.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.segment = ""
	s.reached = -1
}
