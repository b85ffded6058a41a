// Package simcontext declares the simulation-context contract the agent
// polls exactly once per tick to observe the other vehicle, per
// specification section 5 ("the Simulation Context must be polled for the
// other vehicle's state exactly once per tick in observe_communication").
package simcontext

// Context exposes the current simulation time and the other vehicle's
// observable state, per specification section 2.3 / section 6.
type Context interface {
	// TimeMillis is the current simulation time in milliseconds.
	TimeMillis() int64

	// CurrentState returns the other vehicle's (traveled distance,
	// velocity), or (nil, nil) if the other vehicle does not currently
	// exist (e.g. not yet spawned). otherSide selects which side of a
	// two-vehicle scenario is "other" relative to the caller.
	CurrentState(otherSide bool) (pos, vel *float64)
}
