package planner

import (
	"github.com/tud-hri/cei-agent/belief"
	"github.com/tud-hri/cei-agent/risk"
	"github.com/tud-hri/cei-agent/track"
)

// constraintParams bundles the context the risk constraint needs,
// mirroring specification section 4.3's g(plan; p0, v0, c_q, c_c).
type constraintParams struct {
	p0, v0            float64
	aMax              float64
	cQuad, cConst     float64
	dtS               float64
	nowS              float64
	riskLow, riskHigh float64
	points            []belief.Point
	timestamps        []float64
	trk               track.Track
	evaluator         *risk.Evaluator
}

// constraintValue evaluates g(plan) = (r_low+r_high)/2 - max_risk(plan),
// forward-integrating position from the vehicle's actual current state per
// specification section 4.3. g >= 0 must hold at the optimum.
func constraintValue(plan []float64, p constraintParams) (float64, error) {
	positions, _ := rolloutPositions(plan, p.p0, p.v0, p.aMax, p.cQuad, p.cConst, p.dtS)
	result, err := p.evaluator.Evaluate(p.points, p.timestamps, positions, p.nowS, p.trk)
	if err != nil {
		return 0, err
	}
	target := (p.riskLow + p.riskHigh) / 2
	return target - result.MaxRisk, nil
}

// constraintGradient estimates d g/d plan via central finite differences.
// Unlike the cost, the constraint routes through the Track's collision
// bounds and the Normal CDF, which have no closed form the planner can
// assume in general (a user-supplied track.Track may be arbitrarily
// nonlinear) — see DESIGN.md for why this one piece stays numerical while
// the cost gradient above is analytical.
func constraintGradient(plan []float64, p constraintParams, h float64) ([]float64, error) {
	n := len(plan)
	gradient := make([]float64, n)
	perturbed := append([]float64(nil), plan...)

	for j := 0; j < n; j++ {
		orig := perturbed[j]

		perturbed[j] = orig + h
		gPlus, err := constraintValue(perturbed, p)
		if err != nil {
			return nil, err
		}

		perturbed[j] = orig - h
		gMinus, err := constraintValue(perturbed, p)
		if err != nil {
			return nil, err
		}

		perturbed[j] = orig
		gradient[j] = (gPlus - gMinus) / (2 * h)
	}
	return gradient, nil
}
