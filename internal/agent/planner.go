package agent

import "context"

// Decision is one planning verdict: either the name of the next tool to run
// or the claim that the run is complete. Exactly one of the two applies; a
// decision naming no tool while not claiming completion breaks the contract,
// as does claiming completion before the digest exists. The controller never
// trusts a decision, it re-validates every one against state.
type Decision struct {
	Tool     string `json:"tool"`
	Reason   string `json:"reason"`
	Complete bool   `json:"is_complete"`
}

// Planner chooses the next step of a run from a state snapshot and the
// registered tool manifests.
type Planner interface {
	Decide(ctx context.Context, snap Snapshot, manifests []Manifest) (Decision, error)
}
