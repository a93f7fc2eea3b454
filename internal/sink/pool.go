package sink

import "context"

// Pool is the set of configured sinks, keyed by sink id (spec §6's
// DYNATRACE_<ID>_* discovery feeds this set at startup).
type Pool struct {
	sinks map[string]*Sink
}

func NewPool(sinks []*Sink) *Pool {
	p := &Pool{sinks: map[string]*Sink{}}
	for _, s := range sinks {
		p.sinks[s.ID] = s
	}
	return p
}

// Get returns the sink for id, or false if no such sink is configured.
// Sink ids in forwarding rules are not checked at load time; the Driver
// calls Get per notification and fails a notification whose rule names
// no configured sink.
func (p *Pool) Get(id string) (*Sink, bool) {
	s, ok := p.sinks[id]
	return s, ok
}

// EmptyAll discards any buffered entries across every sink (spec §4.8
// step 1, run before each notification so leftovers from a failed one
// are never shipped with the next).
func (p *Pool) EmptyAll() {
	for _, s := range p.sinks {
		s.Empty()
	}
}

// FlushAll flushes every sink in map iteration order (unspecified, and
// not the same from one call to the next),
// collecting the first error encountered while still attempting every
// sink so one stuck destination doesn't leave others un-flushed.
func (p *Pool) FlushAll(ctx context.Context) error {
	var first error
	for _, s := range p.sinks {
		if err := s.Flush(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
