package lifecycle

import "github.com/de-tools/cost-radar/pkg/models/domain"

// transitions is the forward edge set of the opportunity state machine.
// The only reopen path is deferred -> scored, taken automatically when a
// deferred candidate re-fires. rejected -> scored exists too but is reserved
// for explicit human action; ValidateTransition enforces that.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusDetected:   {domain.StatusScored},
	domain.StatusScored:     {domain.StatusAssigned},
	domain.StatusAssigned:   {domain.StatusApproved, domain.StatusRejected, domain.StatusDeferred},
	domain.StatusApproved:   {domain.StatusInProgress},
	domain.StatusInProgress: {domain.StatusResolved},
	domain.StatusDeferred:   {domain.StatusScored},
	domain.StatusRejected:   {domain.StatusScored},
	domain.StatusResolved:   {},
}

// ValidateTransition checks one status change against the state machine.
// Reopening a rejected opportunity requires a named human actor.
func ValidateTransition(from, to domain.Status, actor string) error {
	if from == domain.StatusRejected && actor == domain.ActorSystem {
		return &domain.InvalidTransitionError{From: from, To: to}
	}

	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &domain.InvalidTransitionError{From: from, To: to}
}
