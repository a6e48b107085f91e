package monitoring

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/functrace/advice"
)

// A CallCounter tallies the traced calls of one target.
type CallCounter struct {
	sync.Mutex
	ID         string `json:"id"`
	Target     string `json:"target"`
	Started    uint64 `json:"started"`
	Returned   uint64 `json:"returned"`
	InProgress uint64 `json:"in_progress"`
}

// IncrementStarted counts one call as started and in progress.
func (c *CallCounter) IncrementStarted() {
	c.Lock()
	defer c.Unlock()

	c.Started++
	c.InProgress++
}

// MoveInProgressToReturned counts one in-progress call as returned.
func (c *CallCounter) MoveInProgressToReturned() {
	c.Lock()
	defer c.Unlock()

	if c.InProgress > 0 {
		c.InProgress--
	}
	c.Returned++
}

// CallStats is a reporter that maintains one CallCounter per traced target.
// Attach it to a registry, alongside other reporters through a
// MultiReporter, and hand it to a Monitor to show the counts. A call that
// ends in an error never reports completion, so it stays counted as in
// progress.
type CallStats struct {
	mu       sync.Mutex
	counters map[string]*CallCounter
}

// NewCallStats creates an empty CallStats.
func NewCallStats() *CallStats {
	return &CallStats{
		counters: make(map[string]*CallCounter),
	}
}

// Before counts the call as started.
func (s *CallStats) Before(ctx context.Context, _ []any) {
	s.counter(targetLabel(ctx)).IncrementStarted()
}

// After counts the call as returned.
func (s *CallStats) After(ctx context.Context, _ any) {
	s.counter(targetLabel(ctx)).MoveInProgressToReturned()
}

// Counters returns the counters of every target seen so far, ordered by
// target name.
func (s *CallStats) Counters() []*CallCounter {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := make([]*CallCounter, 0, len(s.counters))
	for _, c := range s.counters {
		counters = append(counters, c)
	}

	sort.Slice(counters, func(i, j int) bool {
		return counters[i].Target < counters[j].Target
	})

	return counters
}

func (s *CallStats) counter(target string) *CallCounter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[target]
	if !ok {
		c = &CallCounter{
			ID:     xid.New().String(),
			Target: target,
		}
		s.counters[target] = c
	}

	return c
}

func targetLabel(ctx context.Context) string {
	if target := advice.ActiveTarget(ctx); target != nil {
		return target.String()
	}

	return "?"
}
