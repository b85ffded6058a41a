package agent

import "github.com/pkg/errors"

// ErrNonFinite is wrapped by the error ComputeContinuousInput returns when
// belief initialization, belief update, or risk evaluation fails during a
// tick, including on a non-finite belief or risk value. Per specification
// section 4.5/7 this is fatal: the tick aborts and the agent's state should
// be considered untrustworthy. A non-finite plan from the planner also
// aborts the tick, but its error does not wrap ErrNonFinite.
var ErrNonFinite = errors.New("agent: non-finite value encountered during tick")
