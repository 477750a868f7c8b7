package agent

import "errors"

var (
	// ErrConfiguration marks an invalid pipeline setup: a bad email count,
	// a missing registry entry or a broken manifest.
	ErrConfiguration = errors.New("pipeline configuration invalid")
	// ErrSourceUnavailable marks a mailbox fetch failure.
	ErrSourceUnavailable = errors.New("email source unavailable")
	// ErrModel marks a language model call that failed or returned
	// unusable output.
	ErrModel = errors.New("model call failed")
	// ErrUnknownTool marks a registry lookup for a name no manifest declares.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMissingStateField marks a declared input whose backing state field
	// is absent or has the wrong shape.
	ErrMissingStateField = errors.New("state field missing or malformed")
	// ErrPlannerContract marks a planner decision that violates the planning
	// contract, such as claiming completion before a digest exists.
	ErrPlannerContract = errors.New("planner contract violated")
	// ErrStateDependency marks a tool chosen before its declared reads were
	// populated, or one whose write target is already occupied.
	ErrStateDependency = errors.New("tool state dependencies not satisfied")
	// ErrOutputShape marks a tool result that fails validation against the
	// state it must merge into.
	ErrOutputShape = errors.New("tool output shape invalid")
	// ErrBudgetExceeded marks a run stopped by the iteration cap. Runs ended
	// this way finish ABORTED, not FAILED.
	ErrBudgetExceeded = errors.New("iteration budget exceeded")
)
