package metrics

import "sync"

// Snapshot is a point-in-time copy of the relay counters.
type Snapshot struct {
	Turns    int64 `json:"turns"`
	Failures int64 `json:"failures"`
	Bytes    int64 `json:"bytes"`
}

// Relay counts forwarded turns and bytes.
type Relay struct {
	mu       sync.Mutex
	turns    int64
	failures int64
	bytes    int64
}

// AddTurn records one finished turn. A turn fails when the upstream was
// unreachable, answered with a non-success status or broke mid-stream.
func (r *Relay) AddTurn(n int64, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns++
	r.bytes += n
	if failed {
		r.failures++
	}
}

func (r *Relay) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Turns: r.turns, Failures: r.failures, Bytes: r.bytes}
}
