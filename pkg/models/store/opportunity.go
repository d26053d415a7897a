package store

import "time"

// Opportunity is the persisted row for one tracked opportunity. Key is the
// stable identity "kind|provider|resource_id"; re-running detection updates
// the row in place. Version guards concurrent status writes.
type Opportunity struct {
	Key             string
	Kind            string
	ResourceID      string
	Provider        string
	CurrentValue    float64
	EstimatedImpact float64
	Evidence        map[string]any
	PriorityScore   int
	RoiPercent      float64
	RoiUnbounded    bool
	PaybackPeriods  float64
	RiskLevel       string
	AssignedOwner   string
	Confidence      float64
	Status          string
	SLADeadline     *time.Time
	Version         int64
	UpdatedAt       time.Time
}

// Transition is one persisted status change, attributed and timestamped.
type Transition struct {
	ID             string
	OpportunityKey string
	FromStatus     string
	ToStatus       string
	Actor          string
	At             time.Time
}

// RateObservation is one recorded per-unit rate for a (provider, unit type)
// pair. The latest observation per pair feeds the price-reduction rule on
// the next run.
type RateObservation struct {
	Provider   string
	UnitType   string
	Rate       float64
	ObservedAt time.Time
}
