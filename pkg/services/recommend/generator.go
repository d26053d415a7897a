package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// Generator produces a human-readable remediation text for an opportunity.
// Generation is presentation only: it never changes a score, a status, or
// anything else the pipeline persists, and a failing generator degrades to
// the template fallback instead of failing the request.
type Generator interface {
	Recommend(ctx context.Context, o domain.ScoredOpportunity) (string, error)
}

type templateGenerator struct{}

// NewTemplateGenerator returns the built-in generator that renders a fixed
// template per opportunity kind.
func NewTemplateGenerator() Generator {
	return &templateGenerator{}
}

func (g *templateGenerator) Recommend(_ context.Context, o domain.ScoredOpportunity) (string, error) {
	switch o.Kind {
	case domain.KindIdleResource:
		return fmt.Sprintf(
			"Resource %s on %s is effectively idle. Stopping or terminating it recovers an estimated $%.2f per period.",
			o.ResourceID, o.Provider, o.EstimatedImpact), nil
	case domain.KindOverProvisioned:
		return fmt.Sprintf(
			"Resource %s on %s is running far below its provisioned capacity. Right-sizing it to a smaller tier saves an estimated $%.2f per period.",
			o.ResourceID, o.Provider, o.EstimatedImpact), nil
	case domain.KindUnattachedAsset:
		return fmt.Sprintf(
			"Storage asset %s on %s is not attached to any consumer. Deleting it after a snapshot saves an estimated $%.2f per period.",
			o.ResourceID, o.Provider, o.EstimatedImpact), nil
	case domain.KindPriceReduction:
		return fmt.Sprintf(
			"The unit rate paid for %s on %s is above the current market rate. Switching to the lower rate saves an estimated $%.2f per period with no workload change.",
			o.ResourceID, o.Provider, o.EstimatedImpact), nil
	case domain.KindReservedCommitment:
		return fmt.Sprintf(
			"Spend grouped under %s on %s is sustained enough to cover with a reserved commitment, saving an estimated $%.2f per period.",
			o.ResourceID, o.Provider, o.EstimatedImpact), nil
	default:
		return "", fmt.Errorf("no recommendation template for kind %q", o.Kind)
	}
}

// Recommend runs the generator and falls back to the template text when it
// fails or the context expires. The returned string can be empty only when
// the fallback itself has no template for the kind.
func Recommend(ctx context.Context, g Generator, o domain.ScoredOpportunity) string {
	if g != nil {
		text, err := g.Recommend(ctx, o)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("key", o.Key()).
				Msg("recommendation generator failed, using template fallback")
		}
	}

	text, err := NewTemplateGenerator().Recommend(ctx, o)
	if err != nil {
		return ""
	}
	return text
}
