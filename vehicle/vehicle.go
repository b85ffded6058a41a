// Package vehicle declares the one-dimensional vehicle model contract
// consumed by the agent. The core never constructs a concrete Model itself
// — the simulation driver owns the vehicle and hands the agent a reference
// to it, per specification section 9 ("cyclic references... resolved by
// capability").
package vehicle

// Model is a one-step, pure, deterministic 1-D point-mass integrator, per
// specification section 2.1 / section 6.
type Model interface {
	// Step advances (pos, vel) by dtS seconds under the given normalized
	// acceleration*max-acceleration value accel and resistance
	// coefficients, returning the new (pos, vel). It must not mutate the
	// receiver's own state.
	Step(dtS, pos, vel, accel, cQuad, cConst float64) (posPrime, velPrime float64)

	// MaxAcceleration is the scalar a_max used to denormalize action-plan
	// entries in [-1, 1] into physical acceleration.
	MaxAcceleration() float64

	// Velocity is the vehicle's current velocity.
	Velocity() float64

	// TraveledDistance is the vehicle's current traveled distance (arc
	// length along its track).
	TraveledDistance() float64

	// ResistanceCoefficient is c_quad, the quadratic drag coefficient.
	ResistanceCoefficient() float64

	// ConstantResistance is c_const, the speed-independent resistance
	// term (e.g. rolling resistance).
	ConstantResistance() float64

	// CruiseControlActive reports whether this vehicle is under cruise
	// control, which per specification section 4.5/8 suppresses all
	// re-plans regardless of perceived risk.
	CruiseControlActive() bool
}
