// Package experiment drives the node-count sweep end to end.
package experiment

import "fmt"

// State tracks a run through its fixed pipeline. A run advances
// through every state in order; skipping one is a programming error.
type State int

const (
	StateBuilt State = iota + 1
	StateNetworkAttached
	StateTrafficInstalled
	StateRunning
	StateStopped
	StateReported
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateNetworkAttached:
		return "network-attached"
	case StateTrafficInstalled:
		return "traffic-installed"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateReported:
		return "reported"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Run is one sweep entry: a node count bound to a fresh simulation.
type Run struct {
	ID        string
	NodeCount int
	state     State
}

// State returns the run's current pipeline position.
func (r *Run) State() State { return r.state }

// advance moves the run to next, which must be the immediate successor
// of the current state. A fresh run advances to StateBuilt first.
func (r *Run) advance(next State) error {
	if next != r.state+1 {
		return fmt.Errorf("run %s cannot move from %s to %s", r.ID, r.state, next)
	}
	r.state = next
	return nil
}
