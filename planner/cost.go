package planner

// costParams bundles the scalar context the cost and its gradient need,
// mirroring specification section 4.3's cost(plan; v0, c_q, c_c) signature.
type costParams struct {
	v0     float64
	aMax   float64
	cQuad  float64
	cConst float64
	dtS    float64
	vPref  float64
	theta  float64
}

// cost evaluates specification section 4.3's
// cost(plan) = sum_i (v_i - v_pref)^2 + theta*plan_i^2.
func cost(plan []float64, p costParams) float64 {
	velocities := rolloutVelocities(plan, p.v0, p.aMax, p.cQuad, p.cConst, p.dtS)
	total := 0.0
	for i, v := range velocities {
		diff := v - p.vPref
		total += diff*diff + p.theta*plan[i]*plan[i]
	}
	return total
}

// costAndGradient evaluates the cost and its exact gradient with respect to
// plan, using the forward-propagated sensitivity matrix from dynamics.go.
// This is the hand-derived analytical gradient SPEC_FULL.md section 4.3
// specifies in place of a reverse-mode AD library; planner/gradient_test.go
// checks it against gonum/diff/fd central differences (Testable Property
// 5).
func costAndGradient(plan []float64, p costParams) (value float64, gradient []float64) {
	velocities, dvdplan := rolloutVelocitiesWithSensitivity(plan, p.v0, p.aMax, p.cQuad, p.cConst, p.dtS)

	n := len(plan)
	gradient = make([]float64, n)
	value = 0.0
	for i, v := range velocities {
		diff := v - p.vPref
		value += diff*diff + p.theta*plan[i]*plan[i]

		dCostDvi := 2 * diff
		row := dvdplan[i]
		for j := 0; j <= i; j++ {
			gradient[j] += dCostDvi * row[j]
		}
		gradient[i] += 2 * p.theta * plan[i]
	}
	return value, gradient
}
