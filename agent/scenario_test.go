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

// twoAgentSim is a minimal stand-in for the out-of-scope simulation driver
// (specification section 1's "simulation driver/clock"): it owns two
// vehicles, one shared merging track, and ticks both agents in lockstep,
// each observing the other's state through its own simcontext.Fixed.
type twoAgentSim struct {
	dtS      float64
	trk      *trackfake.SymmetricMergingTrack
	leftVeh  *vehiclefake.PointMass
	rightVeh *vehiclefake.PointMass
	leftCtx  *simcontextfake.Fixed
	rightCtx *simcontextfake.Fixed
	leftA    *Agent
	rightA   *Agent
	timeMS   int64
}

func mergeScenarioCfg(riskLow, riskHigh float64) *config.AgentConfig {
	return &config.AgentConfig{
		Name:                       "scenario-agent",
		DtMS:                       50,
		TimeHorizonS:               4,
		BeliefFrequencyHz:          4,
		PreferredVelocity:          10,
		Theta:                      1,
		RiskBounds:                 config.RiskBounds{Low: riskLow, High: riskHigh},
		SaturationTimeS:            1,
		VehicleWidth:               1.8,
		VehicleLength:              4.5,
		MaxComfortableAcceleration: 1,
	}
}

func newMergeSim(t *testing.T, leftV0, rightV0 float64, leftBounds, rightBounds config.RiskBounds) *twoAgentSim {
	trk := &trackfake.SymmetricMergingTrack{
		SectionLength:      50,
		StartPointDistance: 25,
		VehicleWidth:       1.8,
		VehicleLength:      4.5,
	}

	leftCfg := mergeScenarioCfg(leftBounds.Low, leftBounds.High)
	rightCfg := mergeScenarioCfg(rightBounds.Low, rightBounds.High)

	leftVeh := vehiclefake.NewPointMass(3.0, 0.001, 0.05, 0, leftV0, false)
	rightVeh := vehiclefake.NewPointMass(3.0, 0.001, 0.05, 0, rightV0, false)

	leftCtx := simcontextfake.NewFixed()
	rightCtx := simcontextfake.NewFixed()

	leftA, err := New(leftCfg, logging.NewTestLogger(t), leftVeh, trk, leftCtx, false)
	test.That(t, err, test.ShouldBeNil)
	rightA, err := New(rightCfg, logging.NewTestLogger(t), rightVeh, trk, rightCtx, false)
	test.That(t, err, test.ShouldBeNil)

	return &twoAgentSim{
		dtS:      0.05,
		trk:      trk,
		leftVeh:  leftVeh,
		rightVeh: rightVeh,
		leftCtx:  leftCtx,
		rightCtx: rightCtx,
		leftA:    leftA,
		rightA:   rightA,
	}
}

// tick advances both agents and both vehicles by one control tick,
// matching specification section 5's ordering guarantee: every vehicle's
// compute_continuous_input is called before any vehicle's state is
// integrated.
func (s *twoAgentSim) tick(t *testing.T) (leftAction, rightAction float64) {
	s.leftCtx.SetTimeMillis(s.timeMS)
	s.rightCtx.SetTimeMillis(s.timeMS)
	s.leftCtx.SetOtherVehicle(s.rightVeh.TraveledDistance(), s.rightVeh.Velocity())
	s.rightCtx.SetOtherVehicle(s.leftVeh.TraveledDistance(), s.leftVeh.Velocity())

	leftAction, err := s.leftA.ComputeContinuousInput(s.dtS)
	test.That(t, err, test.ShouldBeNil)
	rightAction, err = s.rightA.ComputeContinuousInput(s.dtS)
	test.That(t, err, test.ShouldBeNil)

	s.leftVeh.Advance(s.dtS, leftAction*s.leftVeh.MaxAcceleration())
	s.rightVeh.Advance(s.dtS, rightAction*s.rightVeh.MaxAcceleration())

	s.timeMS += int64(s.dtS * 1000)
	return leftAction, rightAction
}

// collided reports whether the two vehicles currently violate the track's
// collision bounds around each other's traveled distance.
func (s *twoAgentSim) collided() bool {
	lo, hi := s.trk.GetCollisionBounds(s.leftVeh.TraveledDistance())
	if lo == nil || hi == nil {
		return false
	}
	d := s.rightVeh.TraveledDistance()
	return d >= *lo && d <= *hi
}

// TestScenarioMergeEqualBoundsReachesMergeWithoutCollision approximates
// end-to-end Scenario A: a symmetric merge with equal risk bounds and
// matched initial speeds. The literal "one vehicle visibly yields" outcome
// depends on the optimizer's numeric trajectory; this test checks the
// structural invariant that must hold regardless of which vehicle yields:
// across the run, every emitted action stays in [-1, 1], perceived risk
// stays in [0, 1], and the vehicles never violate the track's collision
// bounds around each other's traveled distance.
func TestScenarioMergeEqualBoundsReachesMergeWithoutCollision(t *testing.T) {
	sim := newMergeSim(t, 10, 10, config.RiskBounds{Low: 0.2, High: 0.5}, config.RiskBounds{Low: 0.2, High: 0.5})

	for s := 0; s < 800; s++ {
		leftAction, rightAction := sim.tick(t)
		test.That(t, leftAction, test.ShouldBeGreaterThanOrEqualTo, -1.0)
		test.That(t, leftAction, test.ShouldBeLessThanOrEqualTo, 1.0)
		test.That(t, rightAction, test.ShouldBeGreaterThanOrEqualTo, -1.0)
		test.That(t, rightAction, test.ShouldBeLessThanOrEqualTo, 1.0)
		test.That(t, sim.leftA.PerceivedRisk(), test.ShouldBeGreaterThanOrEqualTo, 0.0)
		test.That(t, sim.leftA.PerceivedRisk(), test.ShouldBeLessThanOrEqualTo, 1.0)
		test.That(t, sim.collided(), test.ShouldBeFalse)

		if sim.leftVeh.TraveledDistance() > sim.trk.SectionLength && sim.rightVeh.TraveledDistance() > sim.trk.SectionLength {
			break
		}
	}
}

// TestScenarioAsymmetricBoundsYieldsEarlier approximates Scenario C: the
// agent with the lower risk bounds should re-plan (and therefore yield)
// strictly more often than the agent with the higher bounds over the same
// run, since its comfort/safety thresholds are stricter.
func TestScenarioAsymmetricBoundsYieldsEarlier(t *testing.T) {
	sim := newMergeSim(t, 10, 10,
		config.RiskBounds{Low: 0.2, High: 0.4},
		config.RiskBounds{Low: 0.3, High: 0.6},
	)

	leftReplans, rightReplans := 0, 0
	for s := 0; s < 800; s++ {
		sim.tick(t)
		if sim.leftA.DidPlanUpdateOnLastTick() != 0 {
			leftReplans++
		}
		if sim.rightA.DidPlanUpdateOnLastTick() != 0 {
			rightReplans++
		}
		if sim.leftVeh.TraveledDistance() > sim.trk.SectionLength && sim.rightVeh.TraveledDistance() > sim.trk.SectionLength {
			break
		}
	}

	test.That(t, leftReplans, test.ShouldBeGreaterThan, rightReplans)
}

// TestStraightFollowerStaysBounded approximates the "straight follower"
// scenario: a follower starting behind and faster than a leader on a
// Straight track (where collision is always geometrically possible) must
// not run its belief/risk/plan pipeline into a non-finite or out-of-bounds
// state over a sustained run. The gap between the vehicles is not checked.
func TestStraightFollowerStaysBounded(t *testing.T) {
	followerCfg := mergeScenarioCfg(0.2, 0.5)
	followerCfg.PreferredVelocity = 15
	trk := trackfake.Straight{VehicleLength: followerCfg.VehicleLength}

	leaderVeh := vehiclefake.NewPointMass(3.0, 0.001, 0.05, 50, 13.5, false)
	followerVeh := vehiclefake.NewPointMass(3.0, 0.001, 0.05, 0, 15, false)
	followerCtx := simcontextfake.NewFixed()

	followerA, err := New(followerCfg, logging.NewTestLogger(t), followerVeh, trk, followerCtx, false)
	test.That(t, err, test.ShouldBeNil)

	timeMS := int64(0)
	dtS := 0.05
	for s := 0; s < 800; s++ {
		followerCtx.SetTimeMillis(timeMS)
		followerCtx.SetOtherVehicle(leaderVeh.TraveledDistance(), leaderVeh.Velocity())

		action, err := followerA.ComputeContinuousInput(dtS)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, action, test.ShouldBeGreaterThanOrEqualTo, -1.0)
		test.That(t, action, test.ShouldBeLessThanOrEqualTo, 1.0)

		followerVeh.Advance(dtS, action*followerVeh.MaxAcceleration())
		leaderVeh.Advance(dtS, 0)
		timeMS += int64(dtS * 1000)
	}

	test.That(t, followerVeh.Velocity(), test.ShouldBeGreaterThanOrEqualTo, 0.0)
	test.That(t, followerA.PerceivedRisk(), test.ShouldBeGreaterThanOrEqualTo, 0.0)
	test.That(t, followerA.PerceivedRisk(), test.ShouldBeLessThanOrEqualTo, 1.0)
}
