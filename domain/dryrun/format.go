package dryrun

import (
	"fmt"
	"strings"
)

// FormatMoney renders an amount as a dollar string with two decimals
func FormatMoney(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatDailyBudget renders a daily budget, e.g. "$50.00/day"
func FormatDailyBudget(amount float64) string {
	return FormatMoney(amount) + "/day"
}

// Format renders a preview for human review: a header, a table of changes,
// risks and recommendations as bullets, and financial impact lines.
func Format(r Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Dry run: %s (%s)\n\n", r.OperationName, r.SystemName)
	fmt.Fprintf(&sb, "Resource: %s\n\n", r.ResourceID)

	sb.WriteString("### Changes\n\n")
	sb.WriteString("| Resource | ID | Field | Current | New | Type |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range r.Changes {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			cell(c.Resource), cell(c.ResourceID), cell(c.Field),
			cell(c.CurrentValue), cell(c.NewValue), c.ChangeType)
	}

	if r.FinancialImpact != nil {
		fi := r.FinancialImpact
		sb.WriteString("\n### Financial impact\n\n")
		fmt.Fprintf(&sb, "- Current daily spend: %s\n", FormatMoney(fi.CurrentDailySpend))
		fmt.Fprintf(&sb, "- Estimated new daily spend: %s\n", FormatMoney(fi.EstimatedNewDailySpend))
		fmt.Fprintf(&sb, "- Daily difference: %s\n", signedMoney(fi.DailyDifference))
		fmt.Fprintf(&sb, "- Monthly difference: %s\n", signedMoney(fi.MonthlyDifference))
		if fi.Unbounded {
			sb.WriteString("- Percentage change: n/a (from zero)\n")
		} else {
			fmt.Fprintf(&sb, "- Percentage change: %+.1f%%\n", fi.PercentageChange)
		}
	}

	if len(r.Risks) > 0 {
		sb.WriteString("\n### Risks\n\n")
		for _, risk := range r.Risks {
			fmt.Fprintf(&sb, "- %s\n", risk)
		}
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\n### Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}

	return sb.String()
}

func signedMoney(amount float64) string {
	if amount > 0 {
		return "+" + FormatMoney(amount)
	}
	return FormatMoney(amount)
}

// cell keeps user-supplied values from breaking the table layout
func cell(v string) string {
	if v == "" {
		return "-"
	}
	v = strings.ReplaceAll(v, "|", `\|`)
	return strings.ReplaceAll(v, "\n", " ")
}
