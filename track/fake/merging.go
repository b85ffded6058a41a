package fake

import (
	"math"
)

// SymmetricMergingTrack models two straight approach lanes, separated at
// their start by startPointDistance, that merge smoothly into a single
// shared lane over sectionLength. It is grounded in
// original_source/trackobjects/straighttrack.py (StraightTrack's
// track_start_point_distance / track_section_length fields) and the merge
// geometry implied by original_source/test/test_boundsapproximation.py,
// which exercises SymmetricMergingTrack.get_collision_bounds vs.
// get_collision_bounds_approximation and asserts their difference stays
// under 0.50 m (specification Testable Property 6).
//
// Before the lanes have geometrically converged, no collision is possible
// regardless of the other vehicle's position — CollisionBounds returns
// (nil, nil). Once converged, the bounds are the ego's traveled distance
// widened by an "effective vehicle length" that accounts for the shallow
// approach angle, shrinking to the nominal vehicle length once fully
// merged.
type SymmetricMergingTrack struct {
	SectionLength      float64
	StartPointDistance float64
	VehicleWidth       float64
	VehicleLength      float64

	approx *approximationTable
}

// mergeAngle is the half-angle, in radians, between the two approach lanes
// implied by them separating by StartPointDistance over SectionLength.
func (t *SymmetricMergingTrack) mergeAngle() float64 {
	return math.Atan2(t.StartPointDistance, t.SectionLength)
}

func (t *SymmetricMergingTrack) mergeFraction(d float64) float64 {
	f := d / t.SectionLength
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// lateralGap is the remaining lateral separation between the two approach
// lanes at traveled distance d: it decreases linearly from
// StartPointDistance at d=0 to 0 at d=SectionLength, and stays 0 afterward.
func (t *SymmetricMergingTrack) lateralGap(d float64) float64 {
	return t.StartPointDistance * (1 - t.mergeFraction(d))
}

// effectiveVehicleLength grows the nominal vehicle length to account for the
// vehicle occupying the lane diagonally while the lanes have not yet fully
// converged.
func (t *SymmetricMergingTrack) effectiveVehicleLength(d float64) float64 {
	angle := t.mergeAngle() * (1 - t.mergeFraction(d))
	c := math.Cos(angle)
	if c < 0.1 {
		c = 0.1
	}
	return t.VehicleLength / c
}

// GetCollisionBounds computes the exact collision bounds, per the merge
// geometry above. It mirrors the original's get_collision_bounds (exact,
// not the cheap lookup-table approximation).
func (t *SymmetricMergingTrack) GetCollisionBounds(traveledDistance float64) (lo, hi *float64) {
	if t.lateralGap(traveledDistance) >= t.VehicleWidth {
		return nil, nil
	}
	half := t.effectiveVehicleLength(traveledDistance)
	l := traveledDistance - half
	h := traveledDistance + half
	return &l, &h
}

// CollisionBounds implements track.Track using the precomputed linear
// approximation table, mirroring the original's
// get_collision_bounds_approximation: the original builds this table once
// via _initialize_linear_bound_approximation because the exact formula is
// too expensive to call once per belief point per planner iteration.
func (t *SymmetricMergingTrack) CollisionBounds(traveledDistance float64) (lo, hi *float64) {
	if t.approx == nil {
		t.approx = newApproximationTable(t, approxResolution, approxRange(t))
	}
	return t.approx.lookup(traveledDistance)
}

const approxResolution = 0.01 // meters; matches original_source/test/test_boundsapproximation.py's 1cm grid

func approxRange(t *SymmetricMergingTrack) float64 {
	return 2 * t.SectionLength
}

// approximationTable is a precomputed, linearly-interpolated lookup table
// over [0, rangeMax], built once per track and reused across calls.
type approximationTable struct {
	step     float64
	lo, hi   []float64 // NaN marks "no bound" (nil) at that grid point
	rangeMax float64
}

func newApproximationTable(t *SymmetricMergingTrack, step, rangeMax float64) *approximationTable {
	n := int(rangeMax/step) + 2
	table := &approximationTable{step: step, rangeMax: rangeMax, lo: make([]float64, n), hi: make([]float64, n)}
	for i := 0; i < n; i++ {
		d := float64(i) * step
		lo, hi := t.GetCollisionBounds(d)
		table.lo[i] = nilToNaN(lo)
		table.hi[i] = nilToNaN(hi)
	}
	return table
}

func nilToNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func (a *approximationTable) lookup(d float64) (lo, hi *float64) {
	if d < 0 {
		d = 0
	}
	if d > a.rangeMax {
		d = a.rangeMax
	}
	idxF := d / a.step
	i0 := int(idxF)
	if i0 >= len(a.lo)-1 {
		i0 = len(a.lo) - 2
	}
	frac := idxF - float64(i0)

	loVal := interpolate(a.lo[i0], a.lo[i0+1], frac)
	hiVal := interpolate(a.hi[i0], a.hi[i0+1], frac)
	return naNToNil(loVal), naNToNil(hiVal)
}

// interpolate linearly blends a and b by frac in [0,1], propagating NaN
// ("no bound") if either endpoint is NaN and the other is finite only when
// frac is exactly at that endpoint; a half-NaN pair is treated as NaN,
// matching the original's nan-tolerant lookup around the bound-existence
// boundary.
func interpolate(a, b, frac float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if frac == 0 {
			return a
		}
		if frac == 1 {
			return b
		}
		return math.NaN()
	}
	return a + (b-a)*frac
}

func naNToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	out := v
	return &out
}
