package outbound

import "context"

// MutationResult is what a vendor API reports after applying a change
type MutationResult struct {
	System        string   `json:"system"`
	ResourceNames []string `json:"resource_names"`
	Applied       int      `json:"applied"`
}

// BidModifierSpec describes a bid adjustment to create
type BidModifierSpec struct {
	CampaignID    string  `json:"campaign_id"`
	CriterionType string  `json:"criterion_type"`
	CriterionID   string  `json:"criterion_id"`
	Percent       float64 `json:"percent"`
}

// VendorGateway is the set of state-changing vendor calls the executors make.
// Read-only reporting calls live with the tool handlers, not here.
type VendorGateway interface {
	UpdateCampaignBudget(ctx context.Context, customerID, campaignID string, dailyBudget float64) (*MutationResult, error)
	AddKeywords(ctx context.Context, customerID, adGroupID, matchType string, keywords []string) (*MutationResult, error)
	AddNegativeKeywords(ctx context.Context, customerID, campaignID, matchType string, keywords []string) (*MutationResult, error)
	SetCampaignStatus(ctx context.Context, customerID, campaignID, status string) (*MutationResult, error)
	ApplyLabels(ctx context.Context, customerID, campaignID string, labels []string) (*MutationResult, error)
	CreateBidModifier(ctx context.Context, customerID string, spec BidModifierSpec) (*MutationResult, error)
	SubmitSitemap(ctx context.Context, siteURL, sitemapURL string) (*MutationResult, error)
	DeleteSitemap(ctx context.Context, siteURL, sitemapURL string) (*MutationResult, error)
}
