// Package safety holds the pre-flight checks every write operation must pass
// before a confirmation token is minted.
package safety

import (
	"fmt"
	"math"

	domainerr "github.com/adsops/adsops/domain/error"
)

// RiskLevel grades how dangerous a proposed change is
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskMaximal RiskLevel = "MAXIMAL"
)

// BatchKind names a bulk-write domain with its own size ceiling
type BatchKind string

const (
	BatchKeywords         BatchKind = "keywords"
	BatchNegativeKeywords BatchKind = "negative_keywords"
	BatchLabels           BatchKind = "labels"
)

// Config carries the ceilings enforced by the validator
type Config struct {
	MaxBudgetIncreasePercent float64
	BudgetWarnPercent        float64
	BidModifierMinPercent    float64
	BidModifierMaxPercent    float64
	BatchLimits              map[BatchKind]int
	DefaultBatchLimit        int
}

// DefaultConfig returns the production ceilings
func DefaultConfig() Config {
	return Config{
		MaxBudgetIncreasePercent: 500,
		BudgetWarnPercent:        20,
		BidModifierMinPercent:    -90,
		BidModifierMaxPercent:    900,
		BatchLimits: map[BatchKind]int{
			BatchKeywords:         50,
			BatchNegativeKeywords: 50,
			BatchLabels:           20,
		},
		DefaultBatchLimit: 20,
	}
}

// Report is the outcome of a passed check
type Report struct {
	Risk          RiskLevel `json:"risk"`
	Warnings      []string  `json:"warnings"`
	PercentChange float64   `json:"percent_change"`
	// Unbounded is set when the percentage could not be computed because the
	// starting value was zero.
	Unbounded bool `json:"unbounded"`
}

func (r *Report) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) raise(level RiskLevel) {
	if riskRank[level] > riskRank[r.Risk] {
		r.Risk = level
	}
}

var riskRank = map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskMaximal: 3}

// Validator applies per-domain safety rules
type Validator struct {
	config Config
}

func NewValidator(config Config) *Validator {
	defaults := DefaultConfig()
	if config.MaxBudgetIncreasePercent <= 0 {
		config.MaxBudgetIncreasePercent = defaults.MaxBudgetIncreasePercent
	}
	if config.BudgetWarnPercent <= 0 {
		config.BudgetWarnPercent = defaults.BudgetWarnPercent
	}
	if config.BidModifierMinPercent == 0 && config.BidModifierMaxPercent == 0 {
		config.BidModifierMinPercent = defaults.BidModifierMinPercent
		config.BidModifierMaxPercent = defaults.BidModifierMaxPercent
	}
	if config.BatchLimits == nil {
		config.BatchLimits = defaults.BatchLimits
	}
	if config.DefaultBatchLimit <= 0 {
		config.DefaultBatchLimit = defaults.DefaultBatchLimit
	}
	return &Validator{config: config}
}

// ValidateBudgetChange checks a daily budget edit against the increase ceiling
func (v *Validator) ValidateBudgetChange(current, proposed float64) (Report, error) {
	report := Report{Risk: RiskLow, Warnings: []string{}}

	if math.IsNaN(current) || math.IsNaN(proposed) || math.IsInf(current, 0) || math.IsInf(proposed, 0) {
		return report, domainerr.NewValidationError("budget amounts must be finite numbers")
	}
	if current < 0 || proposed < 0 {
		return report, domainerr.NewValidationError(fmt.Sprintf("budgets cannot be negative (current %.2f, new %.2f)", current, proposed))
	}
	if current == proposed {
		return report, domainerr.NewValidationError("new budget equals current budget")
	}

	if current == 0 {
		report.Unbounded = true
		report.raise(RiskMaximal)
		report.warn("Current budget is zero; the increase to %.2f is unbounded in percentage terms", proposed)
		return report, nil
	}

	pct := (proposed - current) / current * 100
	report.PercentChange = math.Round(pct*100) / 100

	if pct > v.config.MaxBudgetIncreasePercent {
		return report, domainerr.NewValidationError(fmt.Sprintf(
			"budget increase of %.1f%% exceeds the %.0f%% ceiling", pct, v.config.MaxBudgetIncreasePercent))
	}

	switch {
	case pct >= 100:
		report.raise(RiskHigh)
		report.warn("Budget more than doubles (%.1f%% increase)", pct)
	case pct >= v.config.BudgetWarnPercent:
		report.raise(RiskMedium)
		report.warn("Large budget increase of %.1f%%", pct)
	case pct <= -v.config.BudgetWarnPercent:
		report.raise(RiskMedium)
		report.warn("Large budget decrease of %.1f%% may throttle delivery", -pct)
	}
	if proposed == 0 {
		report.raise(RiskHigh)
		report.warn("A zero budget stops all delivery for this campaign")
	}
	return report, nil
}

// ExclusionPercent is the bid modifier that removes a criterion entirely
const ExclusionPercent = -100

// ValidateBidModifier checks a bid adjustment percentage
func (v *Validator) ValidateBidModifier(percent float64, allowExclusion bool) (Report, error) {
	report := Report{Risk: RiskLow, Warnings: []string{}, PercentChange: percent}

	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return report, domainerr.NewValidationError("bid modifier must be a finite number")
	}
	if percent == ExclusionPercent {
		if !allowExclusion {
			return report, domainerr.NewValidationError("a -100% bid modifier (full exclusion) is not allowed for this criterion")
		}
		report.raise(RiskHigh)
		report.warn("A -100%% bid modifier excludes this criterion from serving entirely")
		return report, nil
	}
	if percent < v.config.BidModifierMinPercent || percent > v.config.BidModifierMaxPercent {
		return report, domainerr.NewValidationError(fmt.Sprintf(
			"bid modifier %.1f%% is outside the allowed range %.0f%%..%+.0f%%",
			percent, v.config.BidModifierMinPercent, v.config.BidModifierMaxPercent))
	}
	if math.Abs(percent) >= 50 {
		report.raise(RiskMedium)
		report.warn("Bid modifier of %+.1f%% significantly shifts spend", percent)
	}
	return report, nil
}

// BatchLimit returns the ceiling for a bulk-write kind
func (v *Validator) BatchLimit(kind BatchKind) int {
	if limit, ok := v.config.BatchLimits[kind]; ok && limit > 0 {
		return limit
	}
	return v.config.DefaultBatchLimit
}

// ValidateBatch checks a bulk write against its size ceiling
func (v *Validator) ValidateBatch(kind BatchKind, size int) (Report, error) {
	report := Report{Risk: RiskLow, Warnings: []string{}}
	limit := v.BatchLimit(kind)

	if size <= 0 {
		return report, domainerr.NewValidationError(fmt.Sprintf("%s batch is empty", kind))
	}
	if size > limit {
		return report, domainerr.NewValidationError(fmt.Sprintf("%s batch of %d exceeds the limit of %d per request", kind, size, limit))
	}
	if size > limit/2 {
		report.raise(RiskMedium)
		report.warn("Large %s batch (%d of max %d)", kind, size, limit)
	}
	return report, nil
}

// Check dispatches params to the rule for its domain
func (v *Validator) Check(params Params) (Report, error) {
	switch p := params.(type) {
	case nil:
		return Report{Risk: RiskLow, Warnings: []string{}}, nil
	case BudgetParams:
		return v.ValidateBudgetChange(p.CurrentDailyBudget, p.NewDailyBudget)
	case BidModifierParams:
		return v.ValidateBidModifier(p.Percent, p.AllowExclusion)
	case BatchParams:
		return v.ValidateBatch(p.Kind, p.Size)
	case NoopParams:
		report := Report{Risk: RiskLow, Warnings: []string{}}
		if p.Destructive {
			report.raise(RiskHigh)
			report.warn("This operation removes or disables a live resource")
		}
		return report, nil
	}
	return Report{}, domainerr.NewValidationError(fmt.Sprintf("no safety rule for params %T", params))
}
