package planner

import "github.com/pkg/errors"

// ErrNotConverged is returned when neither the direct solve nor the rerun
// from the grid-search fallback's seed reported convergence; feasibility of
// the returned plan is not checked here. Per
// specification section 4.3/7 this is recoverable: the caller logs a
// warning and keeps the best-effort plan the solver returned.
var ErrNotConverged = errors.New("planner: solver did not converge")

// ErrInfeasible is returned by the grid-search fallback when every seed
// (including the current plan) violates the risk constraint; the seed with
// the largest (least-violated) constraint value is used anyway, so this is
// informational rather than fatal.
var ErrInfeasible = errors.New("planner: no seed satisfied the risk constraint")
