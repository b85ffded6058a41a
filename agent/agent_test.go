package agent

import (
	"testing"

	"go.viam.com/test"

	"github.com/tud-hri/cei-agent/config"
	"github.com/tud-hri/cei-agent/logging"
	simcontextfake "github.com/tud-hri/cei-agent/simcontext/fake"
	trackfake "github.com/tud-hri/cei-agent/track/fake"
	vehiclefake "github.com/tud-hri/cei-agent/vehicle/fake"
)

func testCfg() *config.AgentConfig {
	return &config.AgentConfig{
		Name:                       "test-agent",
		DtMS:                       100,
		TimeHorizonS:               0.5,
		BeliefFrequencyHz:          2,
		PreferredVelocity:          10,
		Theta:                      0.1,
		RiskBounds:                 config.RiskBounds{Low: 0.2, High: 0.5},
		SaturationTimeS:            1,
		VehicleWidth:               2,
		VehicleLength:              4.5,
		MaxComfortableAcceleration: 1,
	}
}

func newTestAgent(t *testing.T) (*Agent, *vehiclefake.PointMass, *simcontextfake.Fixed) {
	cfg := testCfg()
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	veh := vehiclefake.NewPointMass(2.0, 0.001, 0.05, 0, 10, false)
	trk := trackfake.Straight{VehicleLength: cfg.VehicleLength}
	simCtx := simcontextfake.NewFixed()

	a, err := New(cfg, logging.NewTestLogger(t), veh, trk, simCtx, false)
	test.That(t, err, test.ShouldBeNil)
	return a, veh, simCtx
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testCfg()
	cfg.BeliefFrequencyHz = 0
	veh := vehiclefake.NewPointMass(2.0, 0.001, 0.05, 0, 10, false)
	trk := trackfake.Straight{VehicleLength: cfg.VehicleLength}
	simCtx := simcontextfake.NewFixed()

	_, err := New(cfg, logging.NewTestLogger(t), veh, trk, simCtx, false)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFirstTickInitializesAndProducesBoundedAction(t *testing.T) {
	a, _, _ := newTestAgent(t)
	test.That(t, a.IsInitialized(), test.ShouldBeFalse)

	action, err := a.ComputeContinuousInput(0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, action, test.ShouldBeGreaterThanOrEqualTo, -1.0)
	test.That(t, action, test.ShouldBeLessThanOrEqualTo, 1.0)
	test.That(t, a.IsInitialized(), test.ShouldBeTrue)

	cfg := testCfg()
	test.That(t, len(a.ActionPlan()), test.ShouldEqual, cfg.NumPlanSteps())
	test.That(t, len(a.Belief()), test.ShouldEqual, cfg.NumBeliefPoints())
	test.That(t, len(a.BeliefTimeStamps()), test.ShouldEqual, cfg.NumBeliefPoints())
	test.That(t, a.PerceivedRisk(), test.ShouldBeGreaterThanOrEqualTo, 0.0)
	test.That(t, a.PerceivedRisk(), test.ShouldBeLessThanOrEqualTo, 1.0)
}

func TestSecondTickRunsSteadyStatePath(t *testing.T) {
	a, _, simCtx := newTestAgent(t)

	_, err := a.ComputeContinuousInput(0.1)
	test.That(t, err, test.ShouldBeNil)

	simCtx.SetTimeMillis(100)
	simCtx.SetOtherVehicle(30, 10)

	action, err := a.ComputeContinuousInput(0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, action, test.ShouldBeGreaterThanOrEqualTo, -1.0)
	test.That(t, action, test.ShouldBeLessThanOrEqualTo, 1.0)
	test.That(t, a.DidPlanUpdateOnLastTick(), test.ShouldBeBetweenOrEqual, -1, 1)
}

func TestResetReturnsToPostConstructionState(t *testing.T) {
	a, _, simCtx := newTestAgent(t)
	_, err := a.ComputeContinuousInput(0.1)
	test.That(t, err, test.ShouldBeNil)
	simCtx.SetTimeMillis(100)

	a.Reset()
	test.That(t, a.IsInitialized(), test.ShouldBeFalse)
	test.That(t, a.PerceivedRisk(), test.ShouldEqual, 0.0)
	test.That(t, a.DidPlanUpdateOnLastTick(), test.ShouldEqual, 0)
	for _, v := range a.ActionPlan() {
		test.That(t, v, test.ShouldEqual, 0.0)
	}
	for _, p := range a.Belief() {
		test.That(t, p.Mu, test.ShouldEqual, 0.0)
		test.That(t, p.Sigma, test.ShouldEqual, 0.0)
	}
}

// TestDecideReplanHysteresis is Testable Property 8: if r_low < perceived
// risk < r_high for consecutive ticks, did_plan_update_on_last_tick stays 0
// throughout.
func TestDecideReplanHysteresis(t *testing.T) {
	bounds := config.RiskBounds{Low: 0.2, High: 0.5}
	for _, risk := range []float64{0.21, 0.3, 0.35, 0.49} {
		didUpdate, shouldReplan := decideReplan(risk, false, bounds, 10, 0, 1)
		test.That(t, didUpdate, test.ShouldEqual, 0)
		test.That(t, shouldReplan, test.ShouldBeFalse)
	}
}

func TestDecideReplanUpperBoundIgnoresSaturation(t *testing.T) {
	bounds := config.RiskBounds{Low: 0.2, High: 0.5}
	// timeOfLastUpdateS == nowS: saturation window has not elapsed, but the
	// upper bound must still trigger a re-plan.
	didUpdate, shouldReplan := decideReplan(0.9, false, bounds, 10, 10, 5)
	test.That(t, didUpdate, test.ShouldEqual, 1)
	test.That(t, shouldReplan, test.ShouldBeTrue)
}

func TestDecideReplanLowerBoundRespectsSaturation(t *testing.T) {
	bounds := config.RiskBounds{Low: 0.2, High: 0.5}

	// Saturation window not yet elapsed: no re-plan despite low risk.
	didUpdate, shouldReplan := decideReplan(0.05, false, bounds, 10, 9.5, 1)
	test.That(t, didUpdate, test.ShouldEqual, 0)
	test.That(t, shouldReplan, test.ShouldBeFalse)

	// Saturation window elapsed: re-plan triggers.
	didUpdate, shouldReplan = decideReplan(0.05, false, bounds, 10, 8, 1)
	test.That(t, didUpdate, test.ShouldEqual, -1)
	test.That(t, shouldReplan, test.ShouldBeTrue)
}

func TestDecideReplanCruiseControlSuppressesAllReplans(t *testing.T) {
	bounds := config.RiskBounds{Low: 0.2, High: 0.5}
	didUpdate, shouldReplan := decideReplan(0.99, true, bounds, 10, 0, 1)
	test.That(t, didUpdate, test.ShouldEqual, 0)
	test.That(t, shouldReplan, test.ShouldBeFalse)
}

func TestDecideReplanNeverUpperBoundsWhenHighIsOne(t *testing.T) {
	bounds := config.RiskBounds{Low: 0.2, High: 1.0}
	didUpdate, shouldReplan := decideReplan(0.999, false, bounds, 10, 0, 1)
	test.That(t, didUpdate, test.ShouldEqual, 0)
	test.That(t, shouldReplan, test.ShouldBeFalse)
}

func TestDecideReplanNeverLowerBoundsWhenLowIsZero(t *testing.T) {
	bounds := config.RiskBounds{Low: 0.0, High: 0.5}
	didUpdate, shouldReplan := decideReplan(0.0, false, bounds, 10, 0, 1)
	test.That(t, didUpdate, test.ShouldEqual, 0)
	test.That(t, shouldReplan, test.ShouldBeFalse)
}
