package domain

import (
	"fmt"
	"time"
)

// Kind tags the detector rule that produced a candidate.
type Kind string

const (
	KindIdleResource       Kind = "idle_resource"
	KindOverProvisioned    Kind = "over_provisioned"
	KindUnattachedAsset    Kind = "unattached_asset"
	KindPriceReduction     Kind = "price_reduction"
	KindReservedCommitment Kind = "reserved_commitment"
)

type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Status is the lifecycle state of a tracked opportunity. Transitions are
// owned exclusively by the lifecycle tracker.
type Status string

const (
	StatusDetected   Status = "detected"
	StatusScored     Status = "scored"
	StatusAssigned   Status = "assigned"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusDeferred   Status = "deferred"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// Candidate is one potential opportunity emitted by exactly one detector
// rule. Evidence keeps the metric values that triggered the rule so every
// candidate stays traceable to its inputs.
type Candidate struct {
	Kind            Kind
	ResourceID      string
	Provider        Provider
	CurrentValue    float64
	EstimatedImpact float64 // always > 0 for an emitted candidate
	Evidence        map[string]any
}

// Key is the stable identity an opportunity is persisted under. Re-running
// detection updates the existing row for the same key instead of
// duplicating it.
func (c Candidate) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.Kind, c.Provider, c.ResourceID)
}

// ScoredOpportunity is a candidate with its deterministic priority score and
// ROI metrics, plus the mutable tracking fields owned by the lifecycle
// tracker after creation.
type ScoredOpportunity struct {
	Candidate

	PriorityScore  int // 0..100
	RoiPercent     float64
	RoiUnbounded   bool // implementation cost is zero; RoiPercent is meaningless
	PaybackPeriods float64
	RiskLevel      RiskLevel

	AssignedOwner string // empty until assignment; empty after a no-match is "manual"
	Confidence    float64

	Status      Status
	SLADeadline *time.Time
	Version     int64 // optimistic concurrency token for status writes
}

// Overdue reports whether the SLA deadline has passed for an opportunity
// that is not yet resolved. Derived on read, never stored.
func (o ScoredOpportunity) Overdue(now time.Time) bool {
	if o.SLADeadline == nil || o.Status == StatusResolved {
		return false
	}
	return now.After(*o.SLADeadline)
}

// Transition is one attributed status change of a tracked opportunity.
type Transition struct {
	ID             string
	OpportunityKey string
	From           Status
	To             Status
	Actor          string // "system" or a named human
	At             time.Time
}

// ActorSystem attributes transitions performed by the pipeline itself.
const ActorSystem = "system"
