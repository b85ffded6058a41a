// Package planner solves the bounded, risk-constrained nonlinear program
// of specification section 4.3: minimize a velocity-tracking + effort cost
// over the acceleration plan, subject to the collision-risk constraint
// evaluated against the current belief. It follows the teacher's solver
// wrapper shape from motionplan/motionPlanner.go and armplanning/cBiRRT.go
// (a package-level struct holding solver options, a logger, and a
// *rand.Rand for seed perturbation); each solve creates its own
// github.com/go-nlopt/nlopt LD_SLSQP optimizer, as the teacher's ik package
// does for its own bounded gradient-based NLPs.
package planner

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/tud-hri/cei-agent/belief"
	"github.com/tud-hri/cei-agent/config"
	"github.com/tud-hri/cei-agent/logging"
	"github.com/tud-hri/cei-agent/risk"
	"github.com/tud-hri/cei-agent/track"
	"github.com/tud-hri/cei-agent/vehicle"
)

// Planner holds the solver configuration and state shared across solves.
// It is not safe for concurrent use, matching the teacher's planner
// ("must not be re-entrant").
type Planner struct {
	logger logging.Logger
	rng    *rand.Rand
	opts   solveOptions
}

// New constructs a Planner. seed parameterizes the *rand.Rand used for any
// future seed-jitter extension (specification section 4.3's grid search
// itself uses fixed seeds and does not consume randomness).
func New(logger logging.Logger, seed int64) *Planner {
	return &Planner{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		opts:   defaultSolveOptions(),
	}
}

// Result is the outcome of a Plan call.
type Result struct {
	ActionPlan   []float64
	VelocityPlan []float64
	PositionPlan []float64
}

// Plan solves for a new action plan seeded with currentPlan, per
// specification section 4.3. On solver non-convergence it runs the
// grid-search fallback and reruns the solver from the best seed; if that
// also fails to converge it returns the solver's best-effort result
// alongside ErrNotConverged (recoverable: the caller logs and keeps the
// plan). Any other returned error is fatal.
func (pl *Planner) Plan(
	cfg *config.AgentConfig,
	veh vehicle.Model,
	trk track.Track,
	points []belief.Point,
	timestamps []float64,
	nowS float64,
	currentPlan []float64,
) (Result, error) {
	dtS := float64(cfg.DtMS) / 1000.0
	p0 := veh.TraveledDistance()
	v0 := veh.Velocity()
	aMax := veh.MaxAcceleration()
	cQuad := veh.ResistanceCoefficient()
	cConst := veh.ConstantResistance()

	cp := costParams{
		v0:     v0,
		aMax:   aMax,
		cQuad:  cQuad,
		cConst: cConst,
		dtS:    dtS,
		vPref:  cfg.PreferredVelocity,
		theta:  cfg.Theta,
	}
	kp := constraintParams{
		p0:         p0,
		v0:         v0,
		aMax:       aMax,
		cQuad:      cQuad,
		cConst:     cConst,
		dtS:        dtS,
		nowS:       nowS,
		riskLow:    cfg.RiskBounds.Low,
		riskHigh:   cfg.RiskBounds.High,
		points:     points,
		timestamps: timestamps,
		trk:        trk,
		evaluator:  risk.New(dtS),
	}

	result, err := runSLSQP(currentPlan, cp, kp, pl.opts)
	if err != nil {
		return Result{}, errors.Wrap(err, "planner: initial solve")
	}

	plan := result.plan
	var planErr error
	if !result.converged {
		pl.logger.Warnf("planner: solver did not converge from current plan, running grid-search fallback")
		seed, ferr := bestGridSeed(gridSearchSeeds(currentPlan), cp, kp)
		if ferr != nil {
			pl.logger.Warnf("planner: %v", ferr)
		}
		rerun, err := runSLSQP(seed, cp, kp, pl.opts)
		if err != nil {
			return Result{}, errors.Wrap(err, "planner: grid-search rerun")
		}
		plan = rerun.plan
		if !rerun.converged {
			planErr = ErrNotConverged
		}
	}

	if !isFinitePlan(plan) {
		return Result{}, errors.New("planner: solver returned a non-finite plan")
	}

	positions, velocities := rolloutWithRealVehicle(plan, veh, p0, v0, dtS)
	return Result{ActionPlan: plan, VelocityPlan: velocities, PositionPlan: positions}, planErr
}

// ForwardIntegrate recomputes position/velocity sequences for plan by
// forward integration through veh's actual Step, starting from veh's
// current (traveled distance, velocity). Used outside a solve by plan
// continuation (specification section 4.4), which still must maintain the
// position_plan/velocity_plan invariant without re-running the optimizer.
func ForwardIntegrate(plan []float64, veh vehicle.Model, dtS float64) (positions, velocities []float64) {
	return rolloutWithRealVehicle(plan, veh, veh.TraveledDistance(), veh.Velocity(), dtS)
}

// rolloutWithRealVehicle recomputes velocity_plan/position_plan by a full
// forward integration through the actual vehicle.Model, per specification
// section 4.3 "After success" — this is the one place the planner defers
// to the external vehicle instead of its own differentiable dynamics copy.
func rolloutWithRealVehicle(plan []float64, veh vehicle.Model, p0, v0, dtS float64) (positions, velocities []float64) {
	aMax := veh.MaxAcceleration()
	cQuad := veh.ResistanceCoefficient()
	cConst := veh.ConstantResistance()

	n := len(plan)
	positions = make([]float64, n)
	velocities = make([]float64, n)
	p, v := p0, v0
	for i := 0; i < n; i++ {
		accel := plan[i] * aMax
		pPrime, vPrime := veh.Step(dtS, p, v, accel, cQuad, cConst)
		p, v = pPrime, vPrime
		positions[i] = p
		velocities[i] = v
	}
	return positions, velocities
}
