// Package config defines the per-agent configuration for the cei-agent core
// and validates the tick/belief-grid commensurability and risk-bound
// invariants from section 3 of the specification. It follows
// go.viam.com/rdk/config's idiom of a JSON-tagged struct plus a Validate
// method, rather than a generic key/value store.
package config

import (
	"encoding/json"
	"math"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// RiskBounds is the hysteretic (r_low, r_high) collision-probability pair
// that gates re-planning.
type RiskBounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// AgentConfig is the immutable-per-agent configuration described in
// specification section 3.
type AgentConfig struct {
	// Name identifies the agent for log namespacing only; it has no
	// bearing on belief/plan semantics.
	Name string `json:"name"`

	// DtMS is the control tick length in milliseconds.
	DtMS int `json:"dt_ms"`

	// TimeHorizonS is the planning horizon in seconds.
	TimeHorizonS float64 `json:"time_horizon_s"`

	// BeliefFrequencyHz is the number of belief samples per second along
	// the belief timeline.
	BeliefFrequencyHz int `json:"belief_frequency_hz"`

	PreferredVelocity float64 `json:"preferred_velocity"`

	// Theta is the effort weight in the planner cost, must be >= 0.
	Theta float64 `json:"theta"`

	RiskBounds RiskBounds `json:"risk_bounds"`

	// SaturationTimeS is the minimum spacing between lower-bound
	// (comfort) re-plans.
	SaturationTimeS float64 `json:"saturation_time_s"`

	VehicleWidth  float64 `json:"vehicle_width"`
	VehicleLength float64 `json:"vehicle_length"`

	// MaxComfortableAcceleration governs the belief update's likelihood
	// sigma; it is independent of any vehicle's actual max_acceleration.
	MaxComfortableAcceleration float64 `json:"max_comfortable_acceleration"`

	// Extra carries unrecognized attributes for forward compatibility,
	// decoded on demand via github.com/mitchellh/mapstructure, matching
	// the teacher's config.AttributeMap pattern.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// NumPlanSteps returns N = (1000/dt_ms) * time_horizon_s, the action-plan
// length.
func (c *AgentConfig) NumPlanSteps() int {
	return int((1000.0 / float64(c.DtMS)) * c.TimeHorizonS)
}

// NumBeliefPoints returns M = belief_frequency_hz * time_horizon_s + 1.
func (c *AgentConfig) NumBeliefPoints() int {
	return int(math.Round(float64(c.BeliefFrequencyHz)*c.TimeHorizonS)) + 1
}

// BeliefPeriodMS returns the belief roll period in milliseconds,
// 1000/belief_frequency_hz.
func (c *AgentConfig) BeliefPeriodMS() int {
	return 1000 / c.BeliefFrequencyHz
}

// Validate enforces the tick-grid commensurability and ordering invariants
// of specification section 3. All errors returned here are fatal at
// construction time.
func (c *AgentConfig) Validate() error {
	if c.DtMS <= 0 {
		return errors.New("dt_ms must be positive")
	}
	if c.TimeHorizonS <= 0 {
		return errors.New("time_horizon_s must be positive")
	}
	if c.BeliefFrequencyHz <= 0 {
		return errors.New("belief_frequency_hz must be positive")
	}
	if c.Theta < 0 {
		return errors.New("theta must be >= 0")
	}
	if !(c.RiskBounds.Low >= 0 && c.RiskBounds.Low < c.RiskBounds.High && c.RiskBounds.High <= 1) {
		return errors.Errorf("risk_bounds must satisfy 0 <= low < high <= 1, got (%v, %v)",
			c.RiskBounds.Low, c.RiskBounds.High)
	}
	if c.SaturationTimeS < 0 {
		return errors.New("saturation_time_s must be >= 0")
	}
	if c.MaxComfortableAcceleration <= 0 {
		return errors.New("max_comfortable_acceleration must be positive")
	}

	belT := float64(c.BeliefFrequencyHz) * c.TimeHorizonS
	if belT != math.Trunc(belT) {
		return errors.Errorf("belief_frequency_hz * time_horizon_s must be a positive integer, got %v",
			belT)
	}

	ticksPerBeliefPeriod := 1000.0 / float64(c.DtMS) / float64(c.BeliefFrequencyHz)
	if ticksPerBeliefPeriod != float64(int(ticksPerBeliefPeriod)) || ticksPerBeliefPeriod <= 0 {
		return errors.Errorf(
			"(1000/dt_ms)/belief_frequency_hz must be a positive integer, got %v", ticksPerBeliefPeriod)
	}

	n := c.NumPlanSteps()
	if float64(n) != (1000.0/float64(c.DtMS))*c.TimeHorizonS || n <= 0 {
		return errors.New("(1000/dt_ms) * time_horizon_s must be a positive integer")
	}

	return nil
}

// DecodeExtra decodes the configuration's Extra attribute bag into out,
// matching go.viam.com/rdk/config's mapstructure-based attribute conversion.
func (c *AgentConfig) DecodeExtra(out interface{}) error {
	if c.Extra == nil {
		return nil
	}
	return mapstructure.Decode(c.Extra, out)
}

// Read loads and validates an AgentConfig from a JSON file, mirroring
// go.viam.com/rdk/config.Read's file-then-validate shape.
func Read(path string) (*AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %q", path)
	}
	var cfg AgentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config in %q", path)
	}
	return &cfg, nil
}
