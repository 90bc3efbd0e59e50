package plans

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"free", Free, false},
		{"pro", Pro, false},
		{"enterprise", "", true},
		{"PRO", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownTier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTier_Scan(t *testing.T) {
	t.Run("accepts string and bytes", func(t *testing.T) {
		var tier Tier
		require.NoError(t, tier.Scan("pro"))
		assert.Equal(t, Pro, tier)

		require.NoError(t, tier.Scan([]byte("free")))
		assert.Equal(t, Free, tier)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		var tier Tier
		assert.ErrorIs(t, tier.Scan("gold"), ErrUnknownTier)
		assert.ErrorIs(t, tier.Scan(nil), ErrUnknownTier)
		assert.Error(t, tier.Scan(42))
	})
}

func TestTier_Value(t *testing.T) {
	v, err := Pro.Value()
	require.NoError(t, err)
	assert.Equal(t, "pro", v)

	_, err = Tier("gold").Value()
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestTier_UnmarshalJSON(t *testing.T) {
	var body struct {
		Plan Tier `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"plan":"pro"}`), &body))
	assert.Equal(t, Pro, body.Plan)

	assert.Error(t, json.Unmarshal([]byte(`{"plan":"platinum"}`), &body))
}
