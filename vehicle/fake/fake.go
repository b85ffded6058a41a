// Package fake provides a deterministic vehicle.Model test double, mirroring
// the teacher's per-component fake package convention (components/arm/fake,
// components/base/fake, ...). It is grounded in
// original_source/agents/ceiagent.py's use of controllable_object
// (calculate_time_step_1d, resistance_coefficient, constant_resistance,
// max_acceleration): that file's steady-state identity at line 343,
// required_acceleration = resistance_coefficient*target_velocity**2 +
// constant_resistance, fixes the sign and scaling of the quadratic-drag
// term this point-mass model integrates.
package fake

import "math"

// PointMass is a one-dimensional point-mass vehicle whose resistance to
// motion is resistanceCoefficient*v^2 + constantResistance, opposing the
// direction of travel. It integrates with explicit (forward) Euler, which
// is the only method calculate_time_step_1d's call sites need: it is
// invoked once per planner rollout step, not as an ODE solver under
// adaptive step control.
type PointMass struct {
	maxAcceleration       float64
	resistanceCoefficient float64
	constantResistance    float64
	cruiseControlActive   bool
	pos                   float64
	vel                   float64
}

// NewPointMass constructs a PointMass at the given initial traveled
// distance and velocity.
func NewPointMass(maxAcceleration, resistanceCoefficient, constantResistance, pos, vel float64, cruiseControlActive bool) *PointMass {
	return &PointMass{
		maxAcceleration:       maxAcceleration,
		resistanceCoefficient: resistanceCoefficient,
		constantResistance:    constantResistance,
		cruiseControlActive:   cruiseControlActive,
		pos:                   pos,
		vel:                   vel,
	}
}

// Step implements vehicle.Model. It is a pure function of its arguments and
// does not read or mutate the receiver's own (pos, vel).
func (p *PointMass) Step(dtS, pos, vel, accel, cQuad, cConst float64) (posPrime, velPrime float64) {
	resistance := cQuad*vel*math.Abs(vel) + cConst*sign(vel)
	velPrime = vel + dtS*(accel-resistance)
	posPrime = pos + dtS*vel
	return posPrime, velPrime
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Advance steps the receiver's own state in place by one tick, using its
// own resistance coefficients. This is the
// convenience a simulation driver (not the agent) uses to actually move
// the vehicle; the agent only ever calls Step with explicit arguments.
func (p *PointMass) Advance(dtS, accel float64) {
	p.pos, p.vel = p.Step(dtS, p.pos, p.vel, accel, p.resistanceCoefficient, p.constantResistance)
}

func (p *PointMass) MaxAcceleration() float64       { return p.maxAcceleration }
func (p *PointMass) Velocity() float64              { return p.vel }
func (p *PointMass) TraveledDistance() float64      { return p.pos }
func (p *PointMass) ResistanceCoefficient() float64 { return p.resistanceCoefficient }
func (p *PointMass) ConstantResistance() float64    { return p.constantResistance }
func (p *PointMass) CruiseControlActive() bool      { return p.cruiseControlActive }

// SetCruiseControlActive toggles cruise control, used by tests exercising
// the agent's cruise-control re-plan suppression (specification section
// 4.5/8).
func (p *PointMass) SetCruiseControlActive(active bool) {
	p.cruiseControlActive = active
}
