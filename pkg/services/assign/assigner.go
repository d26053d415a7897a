package assign

import (
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// Entry maps a lowercase substring pattern to an owning team. More specific
// (longer) patterns win when several match.
type Entry struct {
	Pattern string
	Team    string
}

// Assignment is the assigner's verdict for one opportunity. An empty owner
// with zero confidence means "requires manual assignment" and is not an
// error.
type Assignment struct {
	Owner      string
	Confidence float64
}

type Assigner struct {
	entries []Entry
}

func NewAssigner(entries []Entry) (*Assigner, error) {
	for _, e := range entries {
		if e.Pattern == "" || e.Team == "" {
			return nil, fmt.Errorf("ownership entry must have pattern and team")
		}
	}

	// Longest pattern first, then lexicographic, so matching is
	// deterministic and specificity wins.
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Pattern) != len(sorted[j].Pattern) {
			return len(sorted[i].Pattern) > len(sorted[j].Pattern)
		}
		return sorted[i].Pattern < sorted[j].Pattern
	})

	return &Assigner{entries: sorted}, nil
}

// Assign matches the opportunity's resource id, category, and evidence text
// against the ownership table. Confidence reflects where the match was
// found: the resource id is a stronger signal than rule evidence.
func (a *Assigner) Assign(o domain.ScoredOpportunity) Assignment {
	haystacks := []struct {
		text   string
		weight float64
	}{
		{strings.ToLower(o.ResourceID), 0.9},
		{strings.ToLower(evidenceText(o.Evidence)), 0.6},
	}

	for _, entry := range a.entries {
		pattern := strings.ToLower(entry.Pattern)
		for _, h := range haystacks {
			if h.text == "" {
				continue
			}
			if strings.Contains(h.text, pattern) {
				return Assignment{Owner: entry.Team, Confidence: h.weight}
			}
		}
	}

	return Assignment{}
}

func evidenceText(evidence map[string]any) string {
	if len(evidence) == 0 {
		return ""
	}

	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%v ", k, evidence[k])
	}
	return sb.String()
}
