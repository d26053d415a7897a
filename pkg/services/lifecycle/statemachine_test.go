package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.Status
		to    domain.Status
		actor string
		valid bool
	}{
		{"detected to scored", domain.StatusDetected, domain.StatusScored, domain.ActorSystem, true},
		{"scored to assigned", domain.StatusScored, domain.StatusAssigned, domain.ActorSystem, true},
		{"assigned to approved", domain.StatusAssigned, domain.StatusApproved, "alice", true},
		{"assigned to rejected", domain.StatusAssigned, domain.StatusRejected, "alice", true},
		{"assigned to deferred", domain.StatusAssigned, domain.StatusDeferred, "alice", true},
		{"approved to in progress", domain.StatusApproved, domain.StatusInProgress, "alice", true},
		{"in progress to resolved", domain.StatusInProgress, domain.StatusResolved, "alice", true},
		{"deferred reopens to scored", domain.StatusDeferred, domain.StatusScored, domain.ActorSystem, true},
		{"rejected reopened by a human", domain.StatusRejected, domain.StatusScored, "alice", true},
		{"rejected never reopened by the system", domain.StatusRejected, domain.StatusScored, domain.ActorSystem, false},
		{"resolved is terminal", domain.StatusResolved, domain.StatusDetected, "alice", false},
		{"no skipping to resolved", domain.StatusScored, domain.StatusResolved, "alice", false},
		{"no backwards edge", domain.StatusApproved, domain.StatusScored, "alice", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.from, tc.to, tc.actor)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var invalid *domain.InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.from, invalid.From)
			assert.Equal(t, tc.to, invalid.To)
		})
	}
}
