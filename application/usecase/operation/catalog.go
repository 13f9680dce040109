// Package operation maps each write tool onto a dry-run request and, once
// confirmed, onto a vendor gateway call.
package operation

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/adsops/adsops/application/port/inbound"
	"github.com/adsops/adsops/domain/dryrun"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/domain/safety"
)

// Operation names as exposed to agents
const (
	OpUpdateBudget         = "update_budget"
	OpAddKeywords          = "add_keywords"
	OpAddNegativeKeywords  = "add_negative_keywords"
	OpUpdateCampaignStatus = "update_campaign_status"
	OpApplyLabels          = "apply_labels"
	OpCreateBidModifier    = "create_bid_modifier"
	OpSubmitSitemap        = "submit_sitemap"
	OpDeleteSitemap        = "delete_sitemap"
)

const (
	SystemAds           = "Google Ads"
	SystemSearchConsole = "Search Console"
)

var (
	matchTypes     = map[string]bool{"BROAD": true, "PHRASE": true, "EXACT": true}
	campaignStates = map[string]bool{"ENABLED": true, "PAUSED": true, "REMOVED": true}
	criterionTypes = map[string]bool{"DEVICE": true, "LOCATION": true, "AD_SCHEDULE": true, "AUDIENCE": true}
)

type UpdateBudgetInput struct {
	SystemName         string  `json:"system_name"`
	CustomerID         string  `json:"customer_id"`
	CampaignID         string  `json:"campaign_id"`
	CurrentDailyBudget float64 `json:"current_daily_budget"`
	NewDailyBudget     float64 `json:"new_daily_budget"`
	InputText          string  `json:"input_text"`
}

type KeywordsInput struct {
	SystemName string   `json:"system_name"`
	CustomerID string   `json:"customer_id"`
	AdGroupID  string   `json:"ad_group_id"`
	CampaignID string   `json:"campaign_id"`
	MatchType  string   `json:"match_type"`
	Keywords   []string `json:"keywords"`
	InputText  string   `json:"input_text"`
}

type CampaignStatusInput struct {
	SystemName    string `json:"system_name"`
	CustomerID    string `json:"customer_id"`
	CampaignID    string `json:"campaign_id"`
	CurrentStatus string `json:"current_status"`
	NewStatus     string `json:"new_status"`
	InputText     string `json:"input_text"`
}

type LabelsInput struct {
	SystemName string   `json:"system_name"`
	CustomerID string   `json:"customer_id"`
	CampaignID string   `json:"campaign_id"`
	Labels     []string `json:"labels"`
	InputText  string   `json:"input_text"`
}

type BidModifierInput struct {
	SystemName    string  `json:"system_name"`
	CustomerID    string  `json:"customer_id"`
	CampaignID    string  `json:"campaign_id"`
	CriterionType string  `json:"criterion_type"`
	CriterionID   string  `json:"criterion_id"`
	Percent       float64 `json:"percent"`
	InputText     string  `json:"input_text"`
}

type SitemapInput struct {
	SiteURL    string `json:"site_url"`
	SitemapURL string `json:"sitemap_url"`
	InputText  string `json:"input_text"`
}

// UpdateBudget previews a campaign daily budget change
func UpdateBudget(in UpdateBudgetInput) (inbound.DryRunRequest, error) {
	impact := dryrun.NewFinancialImpact(in.CurrentDailyBudget, in.NewDailyBudget)

	req := inbound.DryRunRequest{
		OperationName: OpUpdateBudget,
		SystemName:    systemOrDefault(in.SystemName, SystemAds),
		ResourceID:    in.CampaignID,
		InputText:     in.InputText,
		Safety:        safety.BudgetParams{CurrentDailyBudget: in.CurrentDailyBudget, NewDailyBudget: in.NewDailyBudget},
		Target:        adsTarget(in.CampaignID, in.CustomerID, nil, false),
		Changes: []dryrun.Change{{
			Resource:     "campaign_budget",
			ResourceID:   in.CampaignID,
			Field:        "daily_budget",
			CurrentValue: dryrun.FormatDailyBudget(in.CurrentDailyBudget),
			NewValue:     dryrun.FormatDailyBudget(in.NewDailyBudget),
			ChangeType:   dryrun.ChangeTypeUpdate,
		}},
		FinancialImpact: &impact,
		OperationParams: map[string]interface{}{
			"customer_id":          in.CustomerID,
			"campaign_id":          in.CampaignID,
			"current_daily_budget": in.CurrentDailyBudget,
			"new_daily_budget":     in.NewDailyBudget,
		},
	}

	switch {
	case in.NewDailyBudget > in.CurrentDailyBudget:
		req.Recommendations = append(req.Recommendations,
			"Monitor pacing and cost per conversion for the next 48 hours")
	case in.NewDailyBudget < in.CurrentDailyBudget:
		req.Recommendations = append(req.Recommendations,
			"Check impression share lost to budget after the decrease")
	}
	if math.Abs(impact.MonthlyDifference) >= 1000 {
		req.Risks = append(req.Risks, fmt.Sprintf("Monthly spend changes by %s", dryrun.FormatMoney(math.Abs(impact.MonthlyDifference))))
	}
	return req, nil
}

// AddKeywords previews adding positive keywords to an ad group
func AddKeywords(in KeywordsInput) (inbound.DryRunRequest, error) {
	matchType, err := normalizeMatchType(in.MatchType)
	if err != nil {
		return inbound.DryRunRequest{}, err
	}
	if err := rejectDuplicates("keyword", in.Keywords); err != nil {
		return inbound.DryRunRequest{}, err
	}

	req := inbound.DryRunRequest{
		OperationName: OpAddKeywords,
		SystemName:    systemOrDefault(in.SystemName, SystemAds),
		ResourceID:    in.AdGroupID,
		InputText:     in.InputText,
		Safety:        safety.BatchParams{Kind: safety.BatchKeywords, Size: len(in.Keywords)},
		Target:        adsTarget(in.AdGroupID, in.CustomerID, in.Keywords, true),
		OperationParams: map[string]interface{}{
			"customer_id": in.CustomerID,
			"ad_group_id": in.AdGroupID,
			"match_type":  matchType,
			"keywords":    copyStrings(in.Keywords),
		},
	}
	for _, kw := range in.Keywords {
		req.Changes = append(req.Changes, dryrun.Change{
			Resource:   "ad_group_criterion",
			ResourceID: in.AdGroupID,
			Field:      "keyword",
			NewValue:   fmt.Sprintf("%s [%s]", strings.TrimSpace(kw), matchType),
			ChangeType: dryrun.ChangeTypeCreate,
		})
	}
	if matchType == "BROAD" {
		req.Risks = append(req.Risks, "Broad match keywords can trigger on loosely related searches")
		req.Recommendations = append(req.Recommendations, "Review the search terms report after the first day")
	}
	return req, nil
}

// AddNegativeKeywords previews adding campaign-level negative keywords
func AddNegativeKeywords(in KeywordsInput) (inbound.DryRunRequest, error) {
	matchType, err := normalizeMatchType(in.MatchType)
	if err != nil {
		return inbound.DryRunRequest{}, err
	}
	if err := rejectDuplicates("negative keyword", in.Keywords); err != nil {
		return inbound.DryRunRequest{}, err
	}

	req := inbound.DryRunRequest{
		OperationName: OpAddNegativeKeywords,
		SystemName:    systemOrDefault(in.SystemName, SystemAds),
		ResourceID:    in.CampaignID,
		InputText:     in.InputText,
		Safety:        safety.BatchParams{Kind: safety.BatchNegativeKeywords, Size: len(in.Keywords)},
		Target:        adsTarget(in.CampaignID, in.CustomerID, in.Keywords, true),
		Risks:         []string{"Negative keywords block every matching search, including ones that convert"},
		OperationParams: map[string]interface{}{
			"customer_id": in.CustomerID,
			"campaign_id": in.CampaignID,
			"match_type":  matchType,
			"keywords":    copyStrings(in.Keywords),
		},
	}
	for _, kw := range in.Keywords {
		req.Changes = append(req.Changes, dryrun.Change{
			Resource:   "campaign_criterion",
			ResourceID: in.CampaignID,
			Field:      "negative_keyword",
			NewValue:   fmt.Sprintf("%s [%s]", strings.TrimSpace(kw), matchType),
			ChangeType: dryrun.ChangeTypeCreate,
		})
	}
	req.Recommendations = append(req.Recommendations, "Cross-check against converting search terms before confirming")
	return req, nil
}

// UpdateCampaignStatus previews enabling, pausing or removing a campaign
func UpdateCampaignStatus(in CampaignStatusInput) (inbound.DryRunRequest, error) {
	newStatus := strings.ToUpper(strings.TrimSpace(in.NewStatus))
	current := strings.ToUpper(strings.TrimSpace(in.CurrentStatus))
	if !campaignStates[newStatus] {
		return inbound.DryRunRequest{}, domainerr.NewValidationError(fmt.Sprintf("unknown campaign status %q", in.NewStatus))
	}
	if current != "" && current == newStatus {
		return inbound.DryRunRequest{}, domainerr.NewValidationError(fmt.Sprintf("campaign is already %s", newStatus))
	}

	changeType := dryrun.ChangeTypeUpdate
	if newStatus == "REMOVED" {
		changeType = dryrun.ChangeTypeDelete
	}

	req := inbound.DryRunRequest{
		OperationName: OpUpdateCampaignStatus,
		SystemName:    systemOrDefault(in.SystemName, SystemAds),
		ResourceID:    in.CampaignID,
		InputText:     in.InputText,
		Safety:        safety.NoopParams{Destructive: newStatus != "ENABLED"},
		Target:        adsTarget(in.CampaignID, in.CustomerID, nil, false),
		Changes: []dryrun.Change{{
			Resource:     "campaign",
			ResourceID:   in.CampaignID,
			Field:        "status",
			CurrentValue: current,
			NewValue:     newStatus,
			ChangeType:   changeType,
		}},
		OperationParams: map[string]interface{}{
			"customer_id": in.CustomerID,
			"campaign_id": in.CampaignID,
			"status":      newStatus,
		},
	}
	switch newStatus {
	case "REMOVED":
		req.Risks = append(req.Risks, "Removed campaigns cannot be re-enabled")
		req.Recommendations = append(req.Recommendations, "Pause instead of removing if the campaign may return")
	case "PAUSED":
		req.Recommendations = append(req.Recommendations, "Traffic and conversions from this campaign stop immediately")
	case "ENABLED":
		req.Recommendations = append(req.Recommendations, "Confirm the budget is still appropriate before enabling")
	}
	return req, nil
}

// ApplyLabels previews attaching labels to a campaign
func ApplyLabels(in LabelsInput) (inbound.DryRunRequest, error) {
	if err := rejectDuplicates("label", in.Labels); err != nil {
		return inbound.DryRunRequest{}, err
	}

	req := inbound.DryRunRequest{
		OperationName: OpApplyLabels,
		SystemName:    systemOrDefault(in.SystemName, SystemAds),
		ResourceID:    in.CampaignID,
		InputText:     in.InputText,
		Safety:        safety.BatchParams{Kind: safety.BatchLabels, Size: len(in.Labels)},
		Target:        adsTarget(in.CampaignID, in.CustomerID, in.Labels, true),
		OperationParams: map[string]interface{}{
			"customer_id": in.CustomerID,
			"campaign_id": in.CampaignID,
			"labels":      copyStrings(in.Labels),
		},
	}
	for _, label := range in.Labels {
		req.Changes = append(req.Changes, dryrun.Change{
			Resource:   "campaign_label",
			ResourceID: in.CampaignID,
			Field:      "label",
			NewValue:   strings.TrimSpace(label),
			ChangeType: dryrun.ChangeTypeCreate,
		})
	}
	return req, nil
}

// CreateBidModifier previews a campaign-level bid adjustment
func CreateBidModifier(in BidModifierInput) (inbound.DryRunRequest, error) {
	criterionType := strings.ToUpper(strings.TrimSpace(in.CriterionType))
	if !criterionTypes[criterionType] {
		return inbound.DryRunRequest{}, domainerr.NewValidationError(fmt.Sprintf("unknown criterion type %q", in.CriterionType))
	}

	req := inbound.DryRunRequest{
		OperationName: OpCreateBidModifier,
		SystemName:    systemOrDefault(in.SystemName, SystemAds),
		ResourceID:    in.CampaignID,
		InputText:     in.InputText,
		// Only device criteria can be excluded outright with -100%.
		Safety: safety.BidModifierParams{Percent: in.Percent, AllowExclusion: criterionType == "DEVICE"},
		Target: adsTarget(in.CampaignID, in.CustomerID, nil, false),
		Changes: []dryrun.Change{{
			Resource:   "campaign_bid_modifier",
			ResourceID: in.CampaignID,
			Field:      fmt.Sprintf("%s:%s", strings.ToLower(criterionType), in.CriterionID),
			NewValue:   fmt.Sprintf("%+.0f%%", in.Percent),
			ChangeType: dryrun.ChangeTypeCreate,
		}},
		OperationParams: map[string]interface{}{
			"customer_id":    in.CustomerID,
			"campaign_id":    in.CampaignID,
			"criterion_type": criterionType,
			"criterion_id":   in.CriterionID,
			"percent":        in.Percent,
		},
	}
	req.Target.SecondaryIDs["criterion_id"] = in.CriterionID
	if in.Percent <= safety.ExclusionPercent {
		req.Risks = append(req.Risks, fmt.Sprintf("All %s traffic for this criterion is excluded", strings.ToLower(criterionType)))
	}
	return req, nil
}

// SubmitSitemap previews submitting a sitemap for a verified property
func SubmitSitemap(in SitemapInput) (inbound.DryRunRequest, error) {
	req := sitemapRequest(OpSubmitSitemap, in, dryrun.ChangeTypeCreate, false)
	req.Changes[0].NewValue = in.SitemapURL
	req.Recommendations = append(req.Recommendations, "Check the sitemap status in Search Console after processing")
	return req, nil
}

// DeleteSitemap previews removing a submitted sitemap
func DeleteSitemap(in SitemapInput) (inbound.DryRunRequest, error) {
	req := sitemapRequest(OpDeleteSitemap, in, dryrun.ChangeTypeDelete, true)
	req.Changes[0].CurrentValue = in.SitemapURL
	req.Risks = append(req.Risks, "Search Console stops reporting on URLs discovered through this sitemap")
	return req, nil
}

func sitemapRequest(operationName string, in SitemapInput, changeType dryrun.ChangeType, destructive bool) inbound.DryRunRequest {
	req := inbound.DryRunRequest{
		OperationName: operationName,
		SystemName:    SystemSearchConsole,
		ResourceID:    in.SiteURL,
		InputText:     in.InputText,
		Safety:        safety.NoopParams{Destructive: destructive},
		Target: safety.Target{
			ResourceKind:  safety.IDURL,
			SecondaryIDs:  map[string]string{"sitemap_url": in.SitemapURL},
			SecondaryKind: safety.IDURL,
		},
		Changes: []dryrun.Change{{
			Resource:   "sitemap",
			ResourceID: in.SiteURL,
			Field:      "feedpath",
			ChangeType: changeType,
		}},
		OperationParams: map[string]interface{}{
			"site_url":    in.SiteURL,
			"sitemap_url": in.SitemapURL,
		},
	}
	if !sameSite(in.SiteURL, in.SitemapURL) {
		req.Risks = append(req.Risks, "Sitemap host differs from the property; Search Console may reject it")
	}
	return req
}

func adsTarget(resourceID, customerID string, items []string, bulk bool) safety.Target {
	target := safety.Target{
		ResourceID:    resourceID,
		ResourceKind:  safety.IDNumeric,
		SecondaryIDs:  map[string]string{},
		SecondaryKind: safety.IDNumeric,
		Items:         items,
		ItemsRequired: bulk,
	}
	if customerID != "" {
		target.SecondaryIDs["customer_id"] = customerID
	}
	return target
}

func normalizeMatchType(matchType string) (string, error) {
	mt := strings.ToUpper(strings.TrimSpace(matchType))
	if mt == "" {
		return "EXACT", nil
	}
	if !matchTypes[mt] {
		return "", domainerr.NewValidationError(fmt.Sprintf("unknown match type %q", matchType))
	}
	return mt, nil
}

func rejectDuplicates(kind string, items []string) error {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		if seen[key] {
			return domainerr.NewValidationError(fmt.Sprintf("duplicate %s %q", kind, item))
		}
		seen[key] = true
	}
	return nil
}

func sameSite(siteURL, sitemapURL string) bool {
	sm, err := url.Parse(sitemapURL)
	if err != nil {
		return false
	}
	if strings.HasPrefix(siteURL, "sc-domain:") {
		domain := strings.TrimPrefix(siteURL, "sc-domain:")
		return sm.Hostname() == domain || strings.HasSuffix(sm.Hostname(), "."+domain)
	}
	site, err := url.Parse(siteURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(site.Hostname(), sm.Hostname())
}

func systemOrDefault(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
