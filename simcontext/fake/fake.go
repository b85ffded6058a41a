// Package fake provides a deterministic simcontext.Context test double,
// mirroring the teacher's per-component fake package convention. It is
// grounded in original_source/simulation/simmaster.py, which is the
// concrete object the agent's observe_communication polls once per tick for
// the other vehicle's (position, velocity).
package fake

// Fixed is a simcontext.Context whose other-vehicle state is set directly
// by the test and whose time is advanced explicitly, rather than following
// a wall clock.
type Fixed struct {
	timeMS  int64
	present bool
	pos     float64
	vel     float64
}

// NewFixed constructs a Fixed context with the other vehicle absent and
// time at zero.
func NewFixed() *Fixed {
	return &Fixed{}
}

// SetTimeMillis sets the current simulation time.
func (f *Fixed) SetTimeMillis(ms int64) {
	f.timeMS = ms
}

// SetOtherVehicle marks the other vehicle present with the given state.
func (f *Fixed) SetOtherVehicle(pos, vel float64) {
	f.present = true
	f.pos = pos
	f.vel = vel
}

// ClearOtherVehicle marks the other vehicle absent, causing CurrentState to
// return (nil, nil).
func (f *Fixed) ClearOtherVehicle() {
	f.present = false
}

// TimeMillis implements simcontext.Context.
func (f *Fixed) TimeMillis() int64 {
	return f.timeMS
}

// CurrentState implements simcontext.Context. otherSide is accepted for
// interface conformance but ignored: this fake models a single other
// vehicle regardless of which side is asking.
func (f *Fixed) CurrentState(otherSide bool) (pos, vel *float64) {
	if !f.present {
		return nil, nil
	}
	p, v := f.pos, f.vel
	return &p, &v
}
