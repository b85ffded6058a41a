package planner

import "math"

// resistance mirrors vehicle/fake.PointMass's integration rule:
// cQuad*v*|v| + cConst*sign(v), opposing the direction of travel. The
// planner keeps its own copy of the dynamics (rather than calling
// vehicle.Model.Step in the optimization loop) so that it can also derive
// the closed-form sensitivities d v_{i+1}/d v_i and d v_{i+1}/d plan_i
// needed by the analytical gradient in cost.go; vehicle.Model.Step is only
// used outside the optimization loop, for the authoritative recompute after
// each solve (specification section 4.3, "After success") and for plan
// continuation via ForwardIntegrate.
func resistance(v, cQuad, cConst float64) float64 {
	return cQuad*v*math.Abs(v) + cConst*sign(v)
}

// dResistanceDv is the derivative of resistance with respect to v.
func dResistanceDv(v, cQuad float64) float64 {
	return 2 * cQuad * math.Abs(v)
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

func step(v, accel, cQuad, cConst, dtS float64) float64 {
	return v + dtS*(accel-resistance(v, cQuad, cConst))
}

// rolloutVelocities iterates the planner's closed-form dynamics from v0
// under accel_i = plan[i]*aMax, returning v_1..v_N (specification section
// 4.3's cost rollout, which resets position to 0 because only velocities
// matter for the objective).
func rolloutVelocities(plan []float64, v0, aMax, cQuad, cConst, dtS float64) []float64 {
	n := len(plan)
	velocities := make([]float64, n)
	v := v0
	for i := 0; i < n; i++ {
		v = step(v, plan[i]*aMax, cQuad, cConst, dtS)
		velocities[i] = v
	}
	return velocities
}

// rolloutVelocitiesWithSensitivity additionally returns the lower-triangular
// sensitivity matrix dvdplan, where dvdplan[i][j] = d v_{i+1} / d plan_j
// (zero for j > i). This is the forward-propagated analytical Jacobian
// referenced in SPEC_FULL.md section 4.3's gradient expansion.
func rolloutVelocitiesWithSensitivity(plan []float64, v0, aMax, cQuad, cConst, dtS float64) (velocities []float64, dvdplan [][]float64) {
	n := len(plan)
	velocities = make([]float64, n)
	dvdplan = make([][]float64, n)
	for i := range dvdplan {
		dvdplan[i] = make([]float64, n)
	}

	v := v0
	var prevRow []float64 // dv_i/dplan_j for the current v, nil when i==0 (v0 has no plan dependence)
	for i := 0; i < n; i++ {
		dvNextDv := 1 - dtS*dResistanceDv(v, cQuad)
		row := dvdplan[i]
		if prevRow != nil {
			for j := 0; j < i; j++ {
				row[j] = dvNextDv * prevRow[j]
			}
		}
		row[i] = dtS * aMax

		v = step(v, plan[i]*aMax, cQuad, cConst, dtS)
		velocities[i] = v
		prevRow = row
	}
	return velocities, dvdplan
}

// rolloutPositions forward-integrates both position and velocity from the
// vehicle's actual current state, used by the risk constraint. The
// post-solve recompute goes through rolloutWithRealVehicle instead.
func rolloutPositions(plan []float64, p0, v0, aMax, cQuad, cConst, dtS float64) (positions, velocities []float64) {
	n := len(plan)
	positions = make([]float64, n)
	velocities = make([]float64, n)
	p, v := p0, v0
	for i := 0; i < n; i++ {
		accel := plan[i] * aMax
		vNext := step(v, accel, cQuad, cConst, dtS)
		p = p + dtS*v
		v = vNext
		positions[i] = p
		velocities[i] = v
	}
	return positions, velocities
}
