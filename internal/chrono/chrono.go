// Package chrono measures named intervals. The compiler uses it to time
// each unit's phases; callers that do not care pass Nop.
package chrono

import (
	"slices"
	"sync"
	"time"
)

// Handle identifies one running interval. The zero Handle is never issued.
type Handle struct {
	id    uint64
	label string
}

func (h Handle) Label() string { return h.label }

type Chrono interface {
	// Begin starts timing an interval under label.
	Begin(label string) Handle
	// End stops the interval and returns its length. Ending an unknown or
	// already ended handle returns 0.
	End(h Handle) time.Duration
}

// Recorder accepts durations measured elsewhere. Stopwatch implements it.
type Recorder interface {
	Record(label string, d time.Duration)
}

// Record adds d under label if c can accept external measurements.
func Record(c Chrono, label string, d time.Duration) {
	if r, ok := c.(Recorder); ok {
		r.Record(label, d)
	}
}

type nop struct{}

func (nop) Begin(string) Handle          { return Handle{} }
func (nop) End(Handle) time.Duration     { return 0 }
func (nop) Record(string, time.Duration) {}

// Nop discards every measurement.
var Nop Chrono = nop{}

// Interval is the accumulated time spent under one label.
type Interval struct {
	Label string        `json:"label"`
	Total time.Duration `json:"total"`
	Count int           `json:"count"`
}

type running struct {
	label string
	start time.Time
}

// Stopwatch is a Chrono safe for concurrent use. Intervals with the same
// label accumulate.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	next    uint64
	running map[uint64]running
	totals  map[string]*Interval
	order   []string // labels in first-seen order
}

type Option func(*Stopwatch)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Stopwatch) { s.now = now }
}

func NewStopwatch(opts ...Option) *Stopwatch {
	s := &Stopwatch{
		now:     time.Now,
		running: make(map[uint64]running),
		totals:  make(map[string]*Interval),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stopwatch) Begin(label string) Handle {
	start := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.running[s.next] = running{label: label, start: start}
	return Handle{id: s.next, label: label}
}

func (s *Stopwatch) End(h Handle) time.Duration {
	end := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.running[h.id]
	if !ok {
		return 0
	}
	delete(s.running, h.id)

	d := end.Sub(r.start)
	s.add(r.label, d)
	return d
}

func (s *Stopwatch) Record(label string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(label, d)
}

// add must be called with mu held.
func (s *Stopwatch) add(label string, d time.Duration) {
	iv, ok := s.totals[label]
	if !ok {
		iv = &Interval{Label: label}
		s.totals[label] = iv
		s.order = append(s.order, label)
	}
	iv.Total += d
	iv.Count++
}

// Intervals returns a snapshot of every label measured so far, in the
// order each label was first completed.
func (s *Stopwatch) Intervals() []Interval {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Interval, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, *s.totals[label])
	}
	return out
}

// Lookup returns the accumulated interval for label.
func (s *Stopwatch) Lookup(label string) (Interval, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.totals[label]
	if !ok {
		return Interval{}, false
	}
	return *iv, true
}

// Sorted returns Intervals ordered by label.
func (s *Stopwatch) Sorted() []Interval {
	out := s.Intervals()
	slices.SortFunc(out, func(a, b Interval) int {
		switch {
		case a.Label < b.Label:
			return -1
		case a.Label > b.Label:
			return 1
		}
		return 0
	})
	return out
}
