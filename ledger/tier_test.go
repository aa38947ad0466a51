package ledger_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise/focus-engine/ledger"
)

func TestValidateTiers_DefaultLadderIsValid(t *testing.T) {
	assert.NoError(t, ledger.ValidateTiers(ledger.DefaultTiers()))
}

func TestValidateTiers_RejectsMalformedTables(t *testing.T) {
	// Each malformed table must fail at startup; none are recoverable.

	tests := []struct {
		name  string
		tiers []ledger.Tier
	}{
		{"empty", nil},
		{"first tier not starting at 0", []ledger.Tier{
			{Name: "E", MinPoints: 10, MaxPoints: math.MaxInt64},
		}},
		{"gap between bands", []ledger.Tier{
			{Name: "E", MinPoints: 0, MaxPoints: 99},
			{Name: "D", MinPoints: 150, MaxPoints: math.MaxInt64},
		}},
		{"overlapping bands", []ledger.Tier{
			{Name: "E", MinPoints: 0, MaxPoints: 99},
			{Name: "D", MinPoints: 50, MaxPoints: math.MaxInt64},
		}},
		{"inverted bounds", []ledger.Tier{
			{Name: "E", MinPoints: 0, MaxPoints: 99},
			{Name: "D", MinPoints: 100, MaxPoints: 90},
		}},
		{"unnamed tier", []ledger.Tier{
			{Name: "", MinPoints: 0, MaxPoints: math.MaxInt64},
		}},
		{"bounded terminal tier", []ledger.Tier{
			{Name: "E", MinPoints: 0, MaxPoints: 99},
			{Name: "D", MinPoints: 100, MaxPoints: 500},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.ValidateTiers(tt.tiers)
			require.Error(t, err)
			assert.ErrorIs(t, err, ledger.ErrInvalidTierTable)
		})
	}
}

func TestNewCalculator_RejectsInvalidLadder(t *testing.T) {
	// InvalidConfiguration is fatal at init, not at query time.
	_, err := ledger.NewCalculator(nil, nil)
	assert.ErrorIs(t, err, ledger.ErrInvalidTierTable)
}
