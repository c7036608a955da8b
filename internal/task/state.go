package task

import "github.com/noahpeltier/backgroundworker/pkg/contracts"

// transitions enumerates the permitted edges of the state machine in spec
// §4.1. Status progresses only forward along these edges; terminal states
// have no outgoing edges.
var transitions = map[contracts.Status][]contracts.Status{
	contracts.StatusCreated: {
		contracts.StatusScheduled,
		contracts.StatusCancelled, // pre-start cancellation, §4.1 diagram
	},
	contracts.StatusScheduled: {
		contracts.StatusRunning,
		contracts.StatusCancelled,
		contracts.StatusFailed, // worker-seed failure in LendEngine, before Running
	},
	contracts.StatusRunning: {
		contracts.StatusCompleted,
		contracts.StatusFailed,
		contracts.StatusCancelled,
		contracts.StatusTimedOut,
	},
}

// canTransition reports whether from -> to is a permitted edge.
func canTransition(from, to contracts.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
