// Package risk implements the collision-risk evaluator: per specification
// section 4.2, it scores each belief point against the track's collision
// bounds at the corresponding planned position and returns the maximum
// collision probability over the belief/plan pair.
package risk

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tud-hri/cei-agent/belief"
	"github.com/tud-hri/cei-agent/track"
)

var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Result is the outcome of one risk evaluation.
type Result struct {
	MaxRisk     float64
	PerPoint    []float64
	Contributes []bool
}

// Evaluator computes collision risk from a belief and a candidate position
// plan, per specification section 4.2.
type Evaluator struct {
	dtS float64
}

// New constructs an Evaluator for a control tick of length dtS seconds.
func New(dtS float64) *Evaluator {
	return &Evaluator{dtS: dtS}
}

// Evaluate scores belief points 0..len(points)-2 (the final point is only
// used to seed the next roll, per specification section 4.2) against the
// track's collision bounds at the plan index aligned with each point's
// timestamp.
func (e *Evaluator) Evaluate(
	points []belief.Point,
	timestamps []float64,
	positionPlan []float64,
	nowS float64,
	trk track.Track,
) (Result, error) {
	n := len(points) - 1
	if n < 0 {
		return Result{}, errors.New("belief must contain at least one point")
	}

	perPoint := make([]float64, n)
	contributes := make([]bool, n)
	maxRisk := 0.0

	for k := 0; k < n; k++ {
		tau := timestamps[k] - nowS
		idxF := tau/e.dtS - 1
		idx := math.Round(idxF)
		if math.Abs(idxF-idx) > 1e-10 {
			return Result{}, errors.Errorf(
				"belief point %d timestamp is not aligned to the control tick grid: tau=%v, dt=%v", k, tau, e.dtS)
		}
		i := int(idx)
		if i < 0 || i >= len(positionPlan) {
			return Result{}, errors.Errorf("belief point %d maps to out-of-range plan index %d", k, i)
		}

		lo, hi := trk.CollisionBounds(positionPlan[i])
		p := collisionProbability(points[k], lo, hi)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Result{}, errors.Errorf("non-finite collision probability at belief point %d", k)
		}
		perPoint[k] = p
		contributes[k] = p > 0
		if p > maxRisk {
			maxRisk = p
		}
	}

	return Result{MaxRisk: maxRisk, PerPoint: perPoint, Contributes: contributes}, nil
}

// collisionProbability returns P(lo <= X <= hi) under N(point.Mu,
// point.Sigma^2), treating either bound as +-infinity when nil.
func collisionProbability(point belief.Point, lo, hi *float64) float64 {
	if lo == nil && hi == nil {
		return 0
	}
	z := func(x float64) float64 { return (x - point.Mu) / point.Sigma }
	switch {
	case lo == nil:
		return standardNormal.CDF(z(*hi))
	case hi == nil:
		return 1 - standardNormal.CDF(z(*lo))
	default:
		return standardNormal.CDF(z(*hi)) - standardNormal.CDF(z(*lo))
	}
}
