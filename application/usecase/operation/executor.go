package operation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adsops/adsops/application/port/inbound"
	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/entity"
)

// NewExecutor returns the executor that replays a confirmed operation's
// stored parameters against the vendor gateway.
func NewExecutor(gateway outbound.VendorGateway) inbound.Executor {
	return func(ctx context.Context, pc *entity.PendingConfirmation) (interface{}, error) {
		p := params(pc.OperationParams)

		switch pc.DryRun.OperationName {
		case OpUpdateBudget:
			budget, err := p.float("new_daily_budget")
			if err != nil {
				return nil, err
			}
			return gateway.UpdateCampaignBudget(ctx, p.str("customer_id"), p.str("campaign_id"), budget)

		case OpAddKeywords:
			return gateway.AddKeywords(ctx, p.str("customer_id"), p.str("ad_group_id"), p.str("match_type"), p.strings("keywords"))

		case OpAddNegativeKeywords:
			return gateway.AddNegativeKeywords(ctx, p.str("customer_id"), p.str("campaign_id"), p.str("match_type"), p.strings("keywords"))

		case OpUpdateCampaignStatus:
			return gateway.SetCampaignStatus(ctx, p.str("customer_id"), p.str("campaign_id"), p.str("status"))

		case OpApplyLabels:
			return gateway.ApplyLabels(ctx, p.str("customer_id"), p.str("campaign_id"), p.strings("labels"))

		case OpCreateBidModifier:
			percent, err := p.float("percent")
			if err != nil {
				return nil, err
			}
			return gateway.CreateBidModifier(ctx, p.str("customer_id"), outbound.BidModifierSpec{
				CampaignID:    p.str("campaign_id"),
				CriterionType: p.str("criterion_type"),
				CriterionID:   p.str("criterion_id"),
				Percent:       percent,
			})

		case OpSubmitSitemap:
			return gateway.SubmitSitemap(ctx, p.str("site_url"), p.str("sitemap_url"))

		case OpDeleteSitemap:
			return gateway.DeleteSitemap(ctx, p.str("site_url"), p.str("sitemap_url"))
		}
		return nil, fmt.Errorf("no executor for operation %q", pc.DryRun.OperationName)
	}
}

// params reads operation parameters that may have been through a JSON
// round trip, so numbers arrive as float64 and lists as []interface{}.
type params map[string]interface{}

func (p params) str(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p params) float(key string) (float64, error) {
	switch v := p[key].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("parameter %s is missing or not a number", key)
}

func (p params) strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
