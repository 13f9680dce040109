package safety

// Params is the closed set of per-domain inputs the validator understands.
type Params interface {
	safetyDomain() string
}

// BudgetParams describes a daily budget edit
type BudgetParams struct {
	CurrentDailyBudget float64
	NewDailyBudget     float64
}

// BidModifierParams describes a bid adjustment on one criterion
type BidModifierParams struct {
	Percent        float64
	AllowExclusion bool
}

// BatchParams describes a bulk write of Size items
type BatchParams struct {
	Kind BatchKind
	Size int
}

// NoopParams is for operations with no numeric rule, e.g. status or sitemap
// changes. Destructive marks removals so the preview carries a risk note.
type NoopParams struct {
	Destructive bool
}

func (BudgetParams) safetyDomain() string      { return "budget" }
func (BidModifierParams) safetyDomain() string { return "bid_modifier" }
func (BatchParams) safetyDomain() string       { return "batch" }
func (NoopParams) safetyDomain() string        { return "noop" }
