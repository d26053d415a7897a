package rules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// Rule is one independent detector. Detect must be a pure function of its
// input: no shared mutable state, no I/O, no clock reads, and candidates
// emitted in the same relative order as their triggering records. A rule
// never emits a candidate with a non-positive estimated impact.
type Rule interface {
	Kind() domain.Kind
	Detect(records []domain.CanonicalRecord) []domain.Candidate
}

// Engine runs a fixed set of rules over a canonical record set. Rules run
// concurrently; outputs are concatenated in registration order so the result
// is deterministic regardless of completion order.
type Engine struct {
	rules []Rule
}

func NewEngine(rules ...Rule) (*Engine, error) {
	seen := make(map[domain.Kind]bool, len(rules))
	for _, r := range rules {
		if seen[r.Kind()] {
			return nil, fmt.Errorf("duplicate rule for kind: %s", r.Kind())
		}
		seen[r.Kind()] = true
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("at least one rule must be provided")
	}
	return &Engine{rules: rules}, nil
}

func (e *Engine) Detect(ctx context.Context, records []domain.CanonicalRecord) ([]domain.Candidate, error) {
	perRule := make([][]domain.Candidate, len(e.rules))

	g, _ := errgroup.WithContext(ctx)
	for i, rule := range e.rules {
		g.Go(func() error {
			perRule[i] = rule.Detect(records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []domain.Candidate
	for _, batch := range perRule {
		candidates = append(candidates, batch...)
	}
	return candidates, nil
}
