package runner

import (
	"sync"

	"github.com/google/uuid"

	"github.com/chaosgen/chaosgen/gen"
)

// History is the ordered record of every event a run produced, in the
// order the runner absorbed them. The consistency-analysis layer consumes
// this record; the engine itself never reads it back.
type History struct {
	mu     sync.Mutex
	runID  uuid.UUID
	events []gen.Op
}

// NewHistory creates an empty history with a fresh run id.
func NewHistory() *History {
	return &History{runID: uuid.New()}
}

// RunID identifies this run in logs and recorded artifacts.
func (h *History) RunID() uuid.UUID {
	return h.runID
}

// Append records one event.
func (h *History) Append(ev gen.Op) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

// Events returns a copy of the recorded events.
func (h *History) Events() []gen.Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]gen.Op, len(h.events))
	copy(out, h.events)
	return out
}

// Len returns the number of recorded events.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// Counts tallies events per operation tag, split by event type.
func (h *History) Counts() map[string]map[gen.EventType]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := map[string]map[gen.EventType]int{}
	for _, ev := range h.events {
		byType, ok := out[ev.F]
		if !ok {
			byType = map[gen.EventType]int{}
			out[ev.F] = byType
		}
		byType[ev.Type]++
	}
	return out
}
