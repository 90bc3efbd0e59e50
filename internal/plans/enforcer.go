package plans

import (
	"context"
	"fmt"
)

// Reason explains why a plan-gated action was denied.
type Reason string

const (
	FreeLimitReached Reason = "free_limit_reached"
	ProLimitReached  Reason = "pro_limit_reached"
	AIDisabled       Reason = "ai_disabled"
)

// Decision is the outcome of a policy check. Denials are ordinary values,
// not errors; errors are reserved for failures reading state.
type Decision struct {
	Allowed bool
	Reason  Reason
	Tier    Tier
	Limit   int
}

func allow(tier Tier) Decision {
	return Decision{Allowed: true, Tier: tier}
}

// Message is the client-facing text for a denial.
func (d Decision) Message() string {
	switch d.Reason {
	case FreeLimitReached:
		return fmt.Sprintf("Free plan allows only %s. Upgrade to Pro.", portfolios(d.Limit))
	case ProLimitReached:
		return fmt.Sprintf("Pro plan allows only %s.", portfolios(d.Limit))
	case AIDisabled:
		return "AI features require Pro subscription"
	}
	return ""
}

func portfolios(n int) string {
	if n == 1 {
		return "1 portfolio"
	}
	return fmt.Sprintf("%d portfolios", n)
}

// PortfolioCounter reports how many portfolios a user owns.
type PortfolioCounter interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type Enforcer struct {
	policy  Policy
	counter PortfolioCounter
}

func NewEnforcer(policy Policy, counter PortfolioCounter) *Enforcer {
	return &Enforcer{policy: policy, counter: counter}
}

// CheckCreateAllowed compares the user's current portfolio count against the
// tier's limit. The count is read fresh on every call.
func (e *Enforcer) CheckCreateAllowed(ctx context.Context, userID string, tier Tier) (Decision, error) {
	limits := e.policy.For(tier)

	count, err := e.counter.CountByUser(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("counting portfolios: %w", err)
	}

	if count < int64(limits.MaxPortfolios) {
		return allow(tier), nil
	}

	reason := ProLimitReached
	if tier == Free {
		reason = FreeLimitReached
	}
	return Decision{Reason: reason, Tier: tier, Limit: limits.MaxPortfolios}, nil
}

// CheckAIAllowed must run before any paid downstream call is issued.
func (e *Enforcer) CheckAIAllowed(tier Tier) Decision {
	if e.policy.For(tier).AIEnabled {
		return allow(tier)
	}
	return Decision{Reason: AIDisabled, Tier: tier}
}
