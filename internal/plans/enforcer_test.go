package plans

import (
	"context"
	"errors"
	"testing"

	"github.com/hugh/go-folio/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	count int64
	err   error
	calls int
}

func (f *fakeCounter) CountByUser(ctx context.Context, userID string) (int64, error) {
	f.calls++
	return f.count, f.err
}

func TestEnforcer_CheckCreateAllowed(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		count   int64
		allowed bool
		reason  Reason
	}{
		{"free with none", Free, 0, true, ""},
		{"free at limit", Free, 1, false, FreeLimitReached},
		{"pro below limit", Pro, 4, true, ""},
		{"pro at limit", Pro, 5, false, ProLimitReached},
		{"pro over limit", Pro, 7, false, ProLimitReached},
		{"unknown tier fails closed", Tier("gold"), 0, false, ProLimitReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &fakeCounter{count: tt.count}
			e := NewEnforcer(DefaultPolicy(), counter)

			d, err := e.CheckCreateAllowed(context.Background(), "user_abc", tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, 1, counter.calls)
		})
	}
}

func TestEnforcer_CheckCreateAllowed_CounterError(t *testing.T) {
	e := NewEnforcer(DefaultPolicy(), &fakeCounter{err: errors.New("db down")})

	_, err := e.CheckCreateAllowed(context.Background(), "user_abc", Free)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestEnforcer_CheckAIAllowed(t *testing.T) {
	e := NewEnforcer(DefaultPolicy(), &fakeCounter{})

	assert.False(t, e.CheckAIAllowed(Free).Allowed)
	assert.Equal(t, AIDisabled, e.CheckAIAllowed(Free).Reason)
	assert.True(t, e.CheckAIAllowed(Pro).Allowed)
}

func TestPolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(config.PlansConfig{
		FreePortfolioLimit: 2,
		FreeAIEnabled:      true,
		ProPortfolioLimit:  10,
		ProAIEnabled:       true,
	})
	e := NewEnforcer(policy, &fakeCounter{count: 1})

	d, err := e.CheckCreateAllowed(context.Background(), "user_abc", Free)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, e.CheckAIAllowed(Free).Allowed)
}

func TestDecision_Message(t *testing.T) {
	assert.Equal(t, "Free plan allows only 1 portfolio. Upgrade to Pro.",
		Decision{Reason: FreeLimitReached, Limit: 1}.Message())
	assert.Equal(t, "Pro plan allows only 5 portfolios.",
		Decision{Reason: ProLimitReached, Limit: 5}.Message())
	assert.Equal(t, "AI features require Pro subscription",
		Decision{Reason: AIDisabled}.Message())
	assert.Empty(t, Decision{Allowed: true}.Message())
}
