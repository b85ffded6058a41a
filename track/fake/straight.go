// Package fake provides deterministic Track test doubles, mirroring the
// teacher's per-component fake package convention (components/arm/fake,
// components/base/fake, ...). The real Track is out of scope for this core
// (specification section 1); these are grounded in
// original_source/trackobjects/straighttrack.py's StraightTrack, where both
// vehicles share a single lane and collide whenever their traveled distances
// are within one vehicle length of each other.
package fake

// Straight is a single-lane track where the other vehicle's collision bounds
// around an ego traveled distance d are always [d-vehicleLength,
// d+vehicleLength] — i.e. collision is always geometrically possible,
// mirroring StraightTrack.get_collision_bounds.
type Straight struct {
	VehicleLength float64
}

// CollisionBounds implements track.Track.
func (s Straight) CollisionBounds(traveledDistance float64) (lo, hi *float64) {
	l := traveledDistance - s.VehicleLength
	h := traveledDistance + s.VehicleLength
	return &l, &h
}
