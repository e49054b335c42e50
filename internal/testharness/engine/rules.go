package engine

import "github.com/cosem-conformance/conformance-go/internal/device"

// Scope says what a script is replayed against.
type Scope int

const (
	// ScopeObject is a builtin script bound to a device object.
	ScopeObject Scope = iota
	// ScopeExternal is a user script replayed as written.
	ScopeExternal
)

func (s Scope) String() string {
	if s == ScopeExternal {
		return "external"
	}
	return "object"
}

// Outcome is what happens to a failed exchange.
type Outcome int

const (
	OutcomeRecord Outcome = iota
	OutcomeSuppress
)

// failureRules decides which exchange failures become findings. External
// scripts may exercise requests the meter is expected to refuse, so
// refusals are not reported for them; transport failures always are.
var failureRules = map[Scope]map[device.ErrorCategory]Outcome{
	ScopeObject: {
		device.ErrCatDevice:    OutcomeRecord,
		device.ErrCatProtocol:  OutcomeRecord,
		device.ErrCatTransport: OutcomeRecord,
	},
	ScopeExternal: {
		device.ErrCatDevice:    OutcomeSuppress,
		device.ErrCatProtocol:  OutcomeSuppress,
		device.ErrCatTransport: OutcomeRecord,
	},
}

// FailureOutcome looks up the rule for a failure. Unknown combinations
// are recorded.
func FailureOutcome(scope Scope, cat device.ErrorCategory) Outcome {
	if o, ok := failureRules[scope][cat]; ok {
		return o
	}
	return OutcomeRecord
}
