package planner

import (
	"math"
	"math/rand"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
)

// solveOptions mirrors the teacher's motionplan/armplanning options shape
// (a small struct of solver tolerances threaded through construction)
// rather than hardcoding magic numbers inline.
type solveOptions struct {
	xtolRel       float64
	maxEval       int
	constraintTol float64
	gradientStep  float64
}

func defaultSolveOptions() solveOptions {
	return solveOptions{
		xtolRel:       1e-6,
		maxEval:       500,
		constraintTol: 1e-8,
		gradientStep:  1e-6,
	}
}

// solveResult is the outcome of one SLSQP attempt.
type solveResult struct {
	plan      []float64
	converged bool
}

// runSLSQP seeds nlopt's LD_SLSQP with seed and returns the optimizer's
// best point. It always returns a usable plan (nlopt returns its
// best-so-far point even on a non-success status), alongside whether the
// solver reported success, per specification section 4.3's "accept the
// best-effort result" fallback semantics.
func runSLSQP(seed []float64, cp costParams, kp constraintParams, opts solveOptions) (solveResult, error) {
	n := len(seed)
	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(n))
	if err != nil {
		return solveResult{}, errors.Wrap(err, "planner: creating nlopt optimizer")
	}
	defer opt.Destroy()

	lb := make([]float64, n)
	ub := make([]float64, n)
	for i := range lb {
		lb[i] = -1
		ub[i] = 1
	}
	if err := opt.SetLowerBounds(lb); err != nil {
		return solveResult{}, errors.Wrap(err, "planner: setting lower bounds")
	}
	if err := opt.SetUpperBounds(ub); err != nil {
		return solveResult{}, errors.Wrap(err, "planner: setting upper bounds")
	}

	var constraintErr error
	objective := func(x, gradient []float64) float64 {
		value, grad := costAndGradient(x, cp)
		if len(gradient) > 0 {
			copy(gradient, grad)
		}
		return value
	}
	if err := opt.SetMinObjective(objective); err != nil {
		return solveResult{}, errors.Wrap(err, "planner: setting objective")
	}

	// nlopt inequality constraints take the form c(x) <= 0, so negate g.
	constraint := func(x, gradient []float64) float64 {
		g, err := constraintValue(x, kp)
		if err != nil {
			constraintErr = err
			return 0
		}
		if len(gradient) > 0 {
			grad, gerr := constraintGradient(x, kp, opts.gradientStep)
			if gerr != nil {
				constraintErr = gerr
			} else {
				for i, v := range grad {
					gradient[i] = -v
				}
			}
		}
		return -g
	}
	if err := opt.AddInequalityConstraint(constraint, opts.constraintTol); err != nil {
		return solveResult{}, errors.Wrap(err, "planner: adding risk constraint")
	}

	if err := opt.SetXtolRel(opts.xtolRel); err != nil {
		return solveResult{}, errors.Wrap(err, "planner: setting xtol")
	}
	if err := opt.SetMaxEval(opts.maxEval); err != nil {
		return solveResult{}, errors.Wrap(err, "planner: setting max eval")
	}

	x0 := append([]float64(nil), seed...)
	xOpt, _, err := opt.Optimize(x0)
	if constraintErr != nil {
		return solveResult{}, errors.Wrap(constraintErr, "planner: evaluating risk constraint during solve")
	}
	if err != nil {
		return solveResult{plan: xOpt, converged: false}, nil
	}
	return solveResult{plan: xOpt, converged: true}, nil
}

// gridSearchSeeds returns the four fallback seeds from specification
// section 4.3: all -1, all 0, all +1, and the current plan.
func gridSearchSeeds(currentPlan []float64) [][]float64 {
	n := len(currentPlan)
	allLow := make([]float64, n)
	allZero := make([]float64, n)
	allHigh := make([]float64, n)
	for i := range allLow {
		allLow[i] = -1
		allHigh[i] = 1
	}
	return [][]float64{allLow, allZero, allHigh, append([]float64(nil), currentPlan...)}
}

// bestGridSeed picks the feasible seed with lowest cost, or, if none is
// feasible, the seed with the largest (least-violated) constraint value,
// per specification section 4.3.
func bestGridSeed(seeds [][]float64, cp costParams, kp constraintParams) ([]float64, error) {
	type scored struct {
		plan       []float64
		cost       float64
		constraint float64
		feasible   bool
	}
	candidates := make([]scored, 0, len(seeds))
	for _, seed := range seeds {
		g, err := constraintValue(seed, kp)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, scored{
			plan:       seed,
			cost:       cost(seed, cp),
			constraint: g,
			feasible:   g >= 0,
		})
	}

	best := candidates[0]
	bestIsSet := false
	for _, c := range candidates {
		if !c.feasible {
			continue
		}
		if !bestIsSet || c.cost < best.cost {
			best = c
			bestIsSet = true
		}
	}
	if bestIsSet {
		return best.plan, nil
	}

	best = candidates[0]
	for _, c := range candidates[1:] {
		if c.constraint > best.constraint {
			best = c
		}
	}
	return best.plan, ErrInfeasible
}

// randomSeedPerturbation is unused by the specified grid-search fallback
// (which uses fixed seeds) but kept available for callers that want to
// jitter a seed before a rerun; it mirrors the teacher's *rand.Rand-backed
// seed perturbation in armplanning/cBiRRT.go.
func randomSeedPerturbation(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func isFinitePlan(plan []float64) bool {
	for _, v := range plan {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
