package plans

import "github.com/hugh/go-folio/pkg/config"

// Limits describes what a tier may do.
type Limits struct {
	MaxPortfolios int
	AIEnabled     bool
}

// Policy maps each tier to its limits. A tier missing from the table gets
// zero limits, so it can neither create portfolios nor use AI features.
type Policy map[Tier]Limits

func DefaultPolicy() Policy {
	return Policy{
		Free: {MaxPortfolios: 1, AIEnabled: false},
		Pro:  {MaxPortfolios: 5, AIEnabled: true},
	}
}

func PolicyFromConfig(cfg config.PlansConfig) Policy {
	return Policy{
		Free: {MaxPortfolios: cfg.FreePortfolioLimit, AIEnabled: cfg.FreeAIEnabled},
		Pro:  {MaxPortfolios: cfg.ProPortfolioLimit, AIEnabled: cfg.ProAIEnabled},
	}
}

func (p Policy) For(tier Tier) Limits {
	return p[tier]
}
