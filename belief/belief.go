// Package belief implements the Bayesian time-indexed belief over the other
// vehicle's future traveled distance: initialization from max-acceleration /
// max-braking envelopes, per-tick conjugate Gaussian updates from a single
// observed velocity, and periodic rolling of the belief window, per
// specification section 4.1.
package belief

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tud-hri/cei-agent/config"
	"github.com/tud-hri/cei-agent/logging"
)

// Point is a single Gaussian belief over the other vehicle's traveled
// distance at one future instant.
type Point struct {
	Mu    float64
	Sigma float64
}

const minSigma = 1e-3

// Engine owns the belief array and its timestamps for one agent.
type Engine struct {
	cfg    *config.AgentConfig
	points []Point
	stamps []float64
	logger logging.Logger
}

// New allocates a belief Engine sized per cfg.NumBeliefPoints. The arrays are
// allocated once at their final length, per specification section 3's
// lifecycle rule; Reset zeros them in place rather than reallocating.
func New(cfg *config.AgentConfig, logger logging.Logger) *Engine {
	m := cfg.NumBeliefPoints()
	return &Engine{
		cfg:    cfg,
		points: make([]Point, m),
		stamps: make([]float64, m),
		logger: logger,
	}
}

// Points returns the current belief, read-only: index k corresponds to
// Timestamps()[k].
func (e *Engine) Points() []Point { return e.points }

// Timestamps returns the absolute simulation times, in seconds, of each
// belief point.
func (e *Engine) Timestamps() []float64 { return e.stamps }

// Reset zeros the belief array and timestamps in place.
func (e *Engine) Reset() {
	for i := range e.points {
		e.points[i] = Point{}
	}
	for i := range e.stamps {
		e.stamps[i] = 0
	}
}

func (e *Engine) delta() float64 {
	return 1.0 / float64(e.cfg.BeliefFrequencyHz)
}

// envelopeRollout runs the discretized upper/lower-envelope propagation of
// specification section 4.1 for `steps` ticks starting from (p0, v0) under
// ego max acceleration aMax, returning the midpoint/half-width belief point
// produced at each step. Used by Initialize only; roll's new final point
// uses the original's distinct single-shot closed form instead (see
// rolledInPoint).
func envelopeRollout(p0, v0, aMax, delta float64, steps int) []Point {
	upperPos, upperVel := p0, v0
	lowerPos, lowerVel := p0, v0
	out := make([]Point, steps)
	for k := 0; k < steps; k++ {
		upperPos += upperVel*delta + 0.5*aMax*delta*delta
		upperVel += aMax * delta

		cand := lowerPos + lowerVel*delta - 0.5*aMax*delta*delta
		if cand >= lowerPos {
			lowerPos = cand
		}
		lowerVel = math.Max(0, lowerVel-aMax*delta)

		mu := (upperPos + lowerPos) / 2
		sigma := (upperPos - mu) / 3
		if sigma < minSigma {
			sigma = minSigma
		}
		out[k] = Point{Mu: mu, Sigma: sigma}
	}
	return out
}

// Initialize populates the belief for the first time after construction or
// Reset, per specification section 4.1. otherPos/otherVel are nil if the
// other vehicle does not exist yet, in which case (0, 0) is substituted.
func (e *Engine) Initialize(nowS, egoMaxAccel float64, otherPos, otherVel *float64) error {
	p0, v0 := 0.0, 0.0
	if otherPos != nil {
		p0 = *otherPos
	}
	if otherVel != nil {
		v0 = *otherVel
	}

	delta := e.delta()
	rollout := envelopeRollout(p0, v0, egoMaxAccel, delta, len(e.points))
	for k, pt := range rollout {
		e.points[k] = pt
		e.stamps[k] = nowS + float64(k+1)*delta
	}
	return e.checkFinite()
}

// Update performs the per-tick conjugate Gaussian update from the observed
// other-vehicle velocity, and, if newPoint is true, rolls the belief window:
// drops the first point, appends one new final point derived from the
// envelope rule over the full horizon, and shifts every timestamp forward by
// one belief period. Per specification section 4.1, when a new point will be
// generated this tick, the update loop starts from index 1 (the point about
// to be dropped is not updated); otherwise it starts from index 0.
func (e *Engine) Update(nowS, egoMaxAccel float64, otherPos, otherVel *float64, newPoint bool) error {
	if otherPos != nil && otherVel != nil {
		pNow := *otherPos
		s := *otherVel
		start := 0
		if newPoint {
			start = 1
		}
		for k := start; k < len(e.points); k++ {
			tau := e.stamps[k] - nowS
			if tau <= 0 {
				return errors.Errorf("belief point %d has non-positive time remaining %v", k, tau)
			}
			muShift := e.points[k].Mu - pNow
			sigmaK := e.points[k].Sigma
			sigmaL := (e.cfg.MaxComfortableAcceleration * tau) / 6

			precisionOther := sigmaK * sigmaK * (1 / (tau * tau))
			denom := sigmaL*sigmaL + precisionOther
			sigmaPost2 := (sigmaL * sigmaL * sigmaK * sigmaK) / denom
			muPost := (muShift*sigmaL*sigmaL + s*sigmaK*sigmaK/tau) / denom
			muPost += pNow

			sigmaPost := math.Sqrt(sigmaPost2)
			if sigmaPost < minSigma {
				sigmaPost = minSigma
			}
			e.points[k] = Point{Mu: muPost, Sigma: sigmaPost}
		}
	}

	if newPoint {
		e.roll(nowS, egoMaxAccel, otherPos, otherVel)
	}

	return e.checkFinite()
}

// roll drops the first belief point, appends a new final point, and shifts
// timestamps forward by one belief period, per specification section 4.1.
func (e *Engine) roll(nowS, egoMaxAccel float64, otherPos, otherVel *float64) {
	m := len(e.points)
	copy(e.points, e.points[1:])
	copy(e.stamps, e.stamps[1:])

	delta := e.delta()
	if m > 1 {
		e.stamps[m-1] = e.stamps[m-2] + delta
	} else {
		e.stamps[0] += delta
	}

	if otherPos == nil || otherVel == nil {
		// Degenerate case: only timestamps advance, per specification
		// section 4.1's "Degenerate case".
		return
	}

	e.points[m-1] = rolledInPoint(*otherPos, *otherVel, egoMaxAccel, delta, m)
}

// rolledInPoint computes the new final belief point generated on a roll,
// per original_source/agents/ceiagent.py's _update_belief (the
// generate_new_point branch): a single-shot closed form over the full
// horizon T = delta*m, distinct from the discretized per-step envelope loop
// Initialize uses. min_velocity is floored at zero but the resulting
// position bound is not otherwise clamped.
func rolledInPoint(p0, v0, aMax, delta float64, m int) Point {
	t := delta * float64(m)
	minVelocity := v0 - (aMax*t)/2
	maxVelocity := v0 + (aMax*t)/2
	if minVelocity < 0 {
		minVelocity = 0
	}

	lowerPositionBound := p0 + minVelocity*t
	upperPositionBound := p0 + maxVelocity*t

	mu := lowerPositionBound + (upperPositionBound-lowerPositionBound)/2
	sigma := (upperPositionBound - mu) / 3
	if sigma < minSigma {
		sigma = minSigma
	}
	return Point{Mu: mu, Sigma: sigma}
}

func (e *Engine) checkFinite() error {
	for k, p := range e.points {
		if math.IsNaN(p.Mu) || math.IsInf(p.Mu, 0) || math.IsNaN(p.Sigma) || math.IsInf(p.Sigma, 0) {
			return errors.Errorf("non-finite belief point at index %d: %+v", k, p)
		}
	}
	for k, t := range e.stamps {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return errors.Errorf("non-finite belief timestamp at index %d: %v", k, t)
		}
	}
	return nil
}
