package session

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats counts the runs of a session.
type Stats struct {
	mu            sync.Mutex
	runs          int
	failures      int
	maskFallbacks int
	durations     []time.Duration
}

// StatsSnapshot is a copy of Stats at one point in time.
type StatsSnapshot struct {
	Runs          int
	Failures      int
	MaskFallbacks int
	SuccessRate   float64
	AverageRun    time.Duration
	LastRun       time.Duration
}

func (s *Stats) recordSuccess(duration time.Duration, maskFallback bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if maskFallback {
		s.maskFallbacks++
	}
	s.durations = append(s.durations, duration)
}

func (s *Stats) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.failures++
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Runs:          s.runs,
		Failures:      s.failures,
		MaskFallbacks: s.maskFallbacks,
		AverageRun:    averageDuration(s.durations),
	}
	if s.runs > 0 {
		snap.SuccessRate = float64(s.runs-s.failures) / float64(s.runs)
	}
	if n := len(s.durations); n > 0 {
		snap.LastRun = s.durations[n-1]
	}
	return snap
}

// Fields renders the snapshot for structured logging.
func (s StatsSnapshot) Fields() logrus.Fields {
	return logrus.Fields{
		"runs":           s.Runs,
		"failures":       s.Failures,
		"mask_fallbacks": s.MaskFallbacks,
		"success_rate":   s.SuccessRate,
		"avg_run":        s.AverageRun,
	}
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
