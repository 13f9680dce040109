package dryrun

import "math"

// ChangeType represents the kind of mutation a change performs
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// IsValid reports whether the change type is one of the known values
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeTypeCreate, ChangeTypeUpdate, ChangeTypeDelete:
		return true
	}
	return false
}

// Change is a single field-level effect of an operation
type Change struct {
	Resource     string     `json:"resource"`
	ResourceID   string     `json:"resource_id"`
	Field        string     `json:"field"`
	CurrentValue string     `json:"current_value"`
	NewValue     string     `json:"new_value"`
	ChangeType   ChangeType `json:"change_type"`
}

// DaysPerMonth is the average month length used for monthly spend projections.
const DaysPerMonth = 30.4

// FinancialImpact is the monetary delta attached to budget-type operations
type FinancialImpact struct {
	CurrentDailySpend      float64 `json:"current_daily_spend"`
	EstimatedNewDailySpend float64 `json:"estimated_new_daily_spend"`
	DailyDifference        float64 `json:"daily_difference"`
	MonthlyDifference      float64 `json:"monthly_difference"`
	PercentageChange       float64 `json:"percentage_change"`
	// Unbounded marks a change away from zero spend, where no percentage exists.
	Unbounded bool `json:"unbounded,omitempty"`
}

// NewFinancialImpact derives the deltas from the current and proposed daily
// spend. A move away from zero is Unbounded and PercentageChange stays zero.
func NewFinancialImpact(current, proposed float64) FinancialImpact {
	daily := proposed - current
	impact := FinancialImpact{
		CurrentDailySpend:      current,
		EstimatedNewDailySpend: proposed,
		DailyDifference:        round2(daily),
		MonthlyDifference:      round2(daily * DaysPerMonth),
	}
	switch {
	case current != 0:
		impact.PercentageChange = round2((proposed - current) / current * 100)
	case proposed != 0:
		impact.Unbounded = true
	}
	return impact
}

func (fi FinancialImpact) finite() bool {
	for _, v := range []float64{
		fi.CurrentDailySpend, fi.EstimatedNewDailySpend,
		fi.DailyDifference, fi.MonthlyDifference, fi.PercentageChange,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
