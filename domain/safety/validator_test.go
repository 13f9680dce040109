package safety

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerr "github.com/adsops/adsops/domain/error"
)

func TestValidator_ValidateBudgetChange(t *testing.T) {
	v := NewValidator(DefaultConfig())

	tests := []struct {
		name         string
		current      float64
		proposed     float64
		wantErr      bool
		wantPercent  float64
		wantRisk     RiskLevel
		wantWarnings int
	}{
		{name: "600% increase exceeds ceiling", current: 100, proposed: 700, wantErr: true},
		{name: "exactly at ceiling", current: 100, proposed: 600, wantPercent: 500, wantRisk: RiskHigh, wantWarnings: 1},
		{name: "50% increase warns", current: 100, proposed: 150, wantPercent: 50, wantRisk: RiskMedium, wantWarnings: 1},
		{name: "small increase is quiet", current: 100, proposed: 110, wantPercent: 10, wantRisk: RiskLow},
		{name: "large decrease warns", current: 100, proposed: 40, wantPercent: -60, wantRisk: RiskMedium, wantWarnings: 1},
		{name: "pause via zero budget", current: 100, proposed: 0, wantPercent: -100, wantRisk: RiskHigh, wantWarnings: 2},
		{name: "negative budget", current: 100, proposed: -5, wantErr: true},
		{name: "unchanged budget", current: 50, proposed: 50, wantErr: true},
		{name: "NaN budget", current: math.NaN(), proposed: 50, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.ValidateBudgetChange(tt.current, tt.proposed)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domainerr.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPercent, report.PercentChange)
			assert.Equal(t, tt.wantRisk, report.Risk)
			assert.Len(t, report.Warnings, tt.wantWarnings)
		})
	}
}

func TestValidator_ValidateBudgetChange_ZeroCurrent(t *testing.T) {
	v := NewValidator(DefaultConfig())

	report, err := v.ValidateBudgetChange(0, 50)

	require.NoError(t, err)
	assert.True(t, report.Unbounded)
	assert.Equal(t, RiskMaximal, report.Risk)
	assert.Equal(t, 0.0, report.PercentChange)
	assert.NotEmpty(t, report.Warnings)
}

func TestValidator_CustomCeiling(t *testing.T) {
	v := NewValidator(Config{MaxBudgetIncreasePercent: 100})

	_, err := v.ValidateBudgetChange(100, 250)
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	_, err = v.ValidateBudgetChange(100, 200)
	assert.NoError(t, err)
}

func TestValidator_ValidateBidModifier(t *testing.T) {
	v := NewValidator(DefaultConfig())

	tests := []struct {
		name           string
		percent        float64
		allowExclusion bool
		wantErr        bool
		wantRisk       RiskLevel
	}{
		{name: "lower bound", percent: -90, wantRisk: RiskMedium},
		{name: "upper bound", percent: 900, wantRisk: RiskMedium},
		{name: "modest boost", percent: 20, wantRisk: RiskLow},
		{name: "below range", percent: -95, wantErr: true},
		{name: "above range", percent: 901, wantErr: true},
		{name: "exclusion allowed", percent: -100, allowExclusion: true, wantRisk: RiskHigh},
		{name: "exclusion not allowed", percent: -100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.ValidateBidModifier(tt.percent, tt.allowExclusion)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domainerr.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRisk, report.Risk)
		})
	}
}

func TestValidator_ValidateBatch(t *testing.T) {
	v := NewValidator(DefaultConfig())

	_, err := v.ValidateBatch(BatchKeywords, 0)
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	_, err = v.ValidateBatch(BatchKeywords, 51)
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	report, err := v.ValidateBatch(BatchKeywords, 50)
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, report.Risk)

	_, err = v.ValidateBatch(BatchLabels, 21)
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	_, err = v.ValidateBatch(BatchKind("unknown"), 20)
	assert.NoError(t, err)
	_, err = v.ValidateBatch(BatchKind("unknown"), 21)
	assert.Error(t, err)
}

func TestValidator_Check(t *testing.T) {
	v := NewValidator(DefaultConfig())

	report, err := v.Check(BudgetParams{CurrentDailyBudget: 50, NewDailyBudget: 75})
	require.NoError(t, err)
	assert.Equal(t, 50.0, report.PercentChange)

	report, err = v.Check(NoopParams{Destructive: true})
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, report.Risk)

	report, err = v.Check(BatchParams{Kind: BatchKeywords, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, RiskLow, report.Risk)

	report, err = v.Check(nil)
	require.NoError(t, err)
	assert.Equal(t, RiskLow, report.Risk)
}
