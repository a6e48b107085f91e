package tracing

import "github.com/sarchlab/functrace/advice"

// An InvalidTargetError reports an attempt to trace a target that does not
// currently resolve to a callable function.
type InvalidTargetError struct {
	Target *advice.Slot
}

func (e *InvalidTargetError) Error() string {
	if e.Target == nil {
		return "tracing: trace target is nil"
	}

	return "tracing: " + e.Target.String() +
		" does not resolve to a callable function"
}
