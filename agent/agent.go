// Package agent implements the control state machine of specification
// section 4.5: it owns a belief.Engine, a risk.Evaluator, and a
// planner.Planner, wiring them together exactly per that section's
// pseudocode, and exposes the read-only accessors of the "Agent contract"
// (specification section 6) consumed by an external simulation driver.
package agent

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tud-hri/cei-agent/belief"
	"github.com/tud-hri/cei-agent/config"
	"github.com/tud-hri/cei-agent/logging"
	"github.com/tud-hri/cei-agent/planner"
	"github.com/tud-hri/cei-agent/risk"
	"github.com/tud-hri/cei-agent/simcontext"
	"github.com/tud-hri/cei-agent/track"
	"github.com/tud-hri/cei-agent/vehicle"
)

// Agent is the public type realizing the CEI core for a single vehicle. It
// is not safe for concurrent use by multiple goroutines, per specification
// section 5.
type Agent struct {
	cfg       *config.AgentConfig
	logger    logging.Logger
	veh       vehicle.Model
	trk       track.Track
	simCtx    simcontext.Context
	otherSide bool

	belief   *belief.Engine
	riskEval *risk.Evaluator
	planner  *planner.Planner

	actionPlan   []float64
	velocityPlan []float64
	positionPlan []float64

	beliefPointContributesToRisk []bool

	isInitialized           bool
	observedCommunication   *float64
	perceivedRisk           float64
	timeOfLastUpdateS       float64
	didPlanUpdateOnLastTick int
}

// New constructs an Agent. otherSide is passed through to
// simcontext.Context.CurrentState on every observation and selects which
// side of a two-vehicle scenario this agent treats as "other". cfg is
// validated; an invalid configuration is a fatal construction-time error
// per specification section 7.
func New(cfg *config.AgentConfig, logger logging.Logger, veh vehicle.Model, trk track.Track, simCtx simcontext.Context, otherSide bool) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "agent: invalid configuration")
	}

	n := cfg.NumPlanSteps()
	m := cfg.NumBeliefPoints()
	agentLogger := logger.Sublogger(cfg.Name)

	a := &Agent{
		cfg:       cfg,
		logger:    agentLogger,
		veh:       veh,
		trk:       trk,
		simCtx:    simCtx,
		otherSide: otherSide,

		belief:   belief.New(cfg, agentLogger.Sublogger("belief")),
		riskEval: risk.New(float64(cfg.DtMS) / 1000.0),
		planner:  planner.New(agentLogger.Sublogger("planner"), 1),

		actionPlan:   make([]float64, n),
		velocityPlan: make([]float64, n),
		positionPlan: make([]float64, n),

		beliefPointContributesToRisk: make([]bool, m-1),
	}
	return a, nil
}

// Reset restores the agent to its post-construction state, zeroing
// pre-allocated arrays in place rather than reallocating, per
// specification section 3's lifecycle rule.
func (a *Agent) Reset() {
	a.belief.Reset()
	for i := range a.actionPlan {
		a.actionPlan[i] = 0
		a.velocityPlan[i] = 0
		a.positionPlan[i] = 0
	}
	for i := range a.beliefPointContributesToRisk {
		a.beliefPointContributesToRisk[i] = false
	}
	a.isInitialized = false
	a.observedCommunication = nil
	a.perceivedRisk = 0
	a.timeOfLastUpdateS = 0
	a.didPlanUpdateOnLastTick = 0
}

// ComputeContinuousInput advances the agent by one control tick and returns
// the next normalized acceleration action_plan[0] in [-1, 1], per
// specification section 4.5. Any non-finite belief or risk value aborts the
// tick with an error wrapping ErrNonFinite; a non-finite plan aborts it with
// the planner's error, which does not wrap ErrNonFinite. Planner
// non-convergence is logged as a warning and does not abort.
func (a *Agent) ComputeContinuousInput(dtS float64) (float64, error) {
	nowS := float64(a.simCtx.TimeMillis()) / 1000.0

	if !a.isInitialized {
		if err := a.initializeTick(nowS); err != nil {
			return 0, err
		}
	} else {
		if err := a.steadyStateTick(nowS); err != nil {
			return 0, err
		}
	}

	return a.actionPlan[0], nil
}

// ComputeDiscreteInput is reserved per specification section 6
// (compute_discrete_input); this core emits no discrete input.
func (a *Agent) ComputeDiscreteInput(dtS float64) (*int, error) {
	return nil, nil
}

func (a *Agent) initializeTick(nowS float64) error {
	otherPos, otherVel := a.simCtx.CurrentState(a.otherSide)

	if err := a.belief.Initialize(nowS, a.veh.MaxAcceleration(), otherPos, otherVel); err != nil {
		return errors.Wrapf(ErrNonFinite, "belief initialize: %v", err)
	}

	if err := a.replan(nowS); err != nil {
		return err
	}

	if err := a.updatePerceivedRisk(nowS); err != nil {
		return err
	}

	a.isInitialized = true
	return nil
}

func (a *Agent) steadyStateTick(nowS float64) error {
	otherPos, otherVel := a.simCtx.CurrentState(a.otherSide)
	if otherVel != nil {
		a.observedCommunication = otherVel
	}

	beliefPeriodMS := int64(a.cfg.BeliefPeriodMS())
	newPoint := a.simCtx.TimeMillis()%beliefPeriodMS == 0

	if err := a.belief.Update(nowS, a.veh.MaxAcceleration(), otherPos, otherVel, newPoint); err != nil {
		return errors.Wrapf(ErrNonFinite, "belief update: %v", err)
	}

	a.continueCurrentPlan(nowS)

	if err := a.updatePerceivedRisk(nowS); err != nil {
		return err
	}

	didUpdate, shouldReplan := decideReplan(a.perceivedRisk, a.veh.CruiseControlActive(), a.cfg.RiskBounds, nowS, a.timeOfLastUpdateS, a.cfg.SaturationTimeS)
	a.didPlanUpdateOnLastTick = didUpdate
	if !shouldReplan {
		return nil
	}

	a.timeOfLastUpdateS = nowS
	if err := a.replan(nowS); err != nil {
		return err
	}
	return a.updatePerceivedRisk(nowS)
}

// decideReplan is the pure re-plan triggering policy of specification
// section 4.5: upper-bound (safety) re-plans are never gated by the
// saturation timer; lower-bound (comfort) re-plans are. It is kept
// separate from steadyStateTick so the hysteresis behavior (Testable
// Property 8) can be exercised without driving the full belief/planner
// pipeline.
func decideReplan(perceivedRisk float64, cruiseControlActive bool, bounds config.RiskBounds, nowS, timeOfLastUpdateS, saturationTimeS float64) (didUpdate int, shouldReplan bool) {
	if cruiseControlActive {
		return 0, false
	}
	switch {
	case perceivedRisk < bounds.Low && (nowS-timeOfLastUpdateS) > saturationTimeS:
		return -1, true
	case perceivedRisk > bounds.High:
		return 1, true
	default:
		return 0, false
	}
}

// continueCurrentPlan implements specification section 4.4: shift
// action_plan left by one, set the new last slot to the acceleration that
// sustains velocity_plan's last entry against resistance, then recompute
// velocity_plan/position_plan by forward integration from the vehicle's
// actual current state.
func (a *Agent) continueCurrentPlan(nowS float64) {
	n := len(a.actionPlan)
	vLast := a.velocityPlan[n-1]
	cQuad := a.veh.ResistanceCoefficient()
	cConst := a.veh.ConstantResistance()
	aMax := a.veh.MaxAcceleration()

	copy(a.actionPlan, a.actionPlan[1:])
	sustaining := (cQuad*vLast*vLast + cConst) / aMax
	a.actionPlan[n-1] = math.Max(-1, math.Min(1, sustaining))

	dtS := float64(a.cfg.DtMS) / 1000.0
	positions, velocities := planner.ForwardIntegrate(a.actionPlan, a.veh, dtS)
	copy(a.positionPlan, positions)
	copy(a.velocityPlan, velocities)
}

// replan invokes the planner and copies its result into the agent's
// pre-allocated plan arrays, preserving the "allocated once" invariant.
// Planner non-convergence is logged as a warning and does not abort the
// tick, per specification section 4.3/7.
func (a *Agent) replan(nowS float64) error {
	result, err := a.planner.Plan(a.cfg, a.veh, a.trk, a.belief.Points(), a.belief.Timestamps(), nowS, a.actionPlan)
	if err != nil {
		if errors.Is(err, planner.ErrNotConverged) {
			a.logger.Warnf("plan update did not converge: %v", err)
		} else {
			return errors.Wrap(err, "agent: plan update failed")
		}
	}

	copy(a.actionPlan, result.ActionPlan)
	copy(a.velocityPlan, result.VelocityPlan)
	copy(a.positionPlan, result.PositionPlan)
	return nil
}

func (a *Agent) updatePerceivedRisk(nowS float64) error {
	result, err := a.riskEval.Evaluate(a.belief.Points(), a.belief.Timestamps(), a.positionPlan, nowS, a.trk)
	if err != nil {
		return errors.Wrapf(ErrNonFinite, "risk evaluate: %v", err)
	}
	a.perceivedRisk = result.MaxRisk
	copy(a.beliefPointContributesToRisk, result.Contributes)
	return nil
}

// Read-only accessors, specification section 6.

func (a *Agent) Belief() []belief.Point        { return a.belief.Points() }
func (a *Agent) BeliefTimeStamps() []float64   { return a.belief.Timestamps() }
func (a *Agent) ActionPlan() []float64         { return a.actionPlan }
func (a *Agent) VelocityPlan() []float64       { return a.velocityPlan }
func (a *Agent) PositionPlan() []float64       { return a.positionPlan }
func (a *Agent) PerceivedRisk() float64        { return a.perceivedRisk }
func (a *Agent) RiskBounds() config.RiskBounds { return a.cfg.RiskBounds }
func (a *Agent) DidPlanUpdateOnLastTick() int  { return a.didPlanUpdateOnLastTick }
func (a *Agent) IsInitialized() bool           { return a.isInitialized }

// BeliefPointContributesToRisk reports, per belief index k < M-1, whether
// that point's collision probability was nonzero during the last risk
// evaluation.
func (a *Agent) BeliefPointContributesToRisk() []bool {
	return a.beliefPointContributesToRisk
}
