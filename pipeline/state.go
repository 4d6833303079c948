package pipeline

import (
	"errors"
	"fmt"
)

// ErrDuplicateOutputKey is returned when a stage attempts to write an output
// key that an earlier stage already produced.
var ErrDuplicateOutputKey = errors.New("output key already written")

// State holds the named outputs produced by a pipeline run. It is append-only:
// each stage writes exactly one key, and keys are never overwritten. Write
// order is preserved so callers can reconstruct the stage sequence.
//
// A State belongs to a single run and is not safe for concurrent writers;
// the pipeline writes stages strictly in order.
type State struct {
	values map[string]string
	order  []string
}

// NewState creates an empty run state.
func NewState() *State {
	return &State{
		values: make(map[string]string),
	}
}

// Set stores value under key. It fails if the key was already written.
func (s *State) Set(key, value string) error {
	if _, exists := s.values[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOutputKey, key)
	}
	s.values[key] = value
	s.order = append(s.order, key)
	return nil
}

// Get returns the value stored under key and whether it exists.
func (s *State) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the output keys in write order.
func (s *State) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Len returns the number of outputs written so far.
func (s *State) Len() int {
	return len(s.order)
}

// Snapshot returns a copy of all outputs.
func (s *State) Snapshot() map[string]string {
	snap := make(map[string]string, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	return snap
}
