package operation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adsops/adsops/application/port/inbound"
	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/application/usecase"
	"github.com/adsops/adsops/domain/dryrun"
	"github.com/adsops/adsops/domain/entity"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/domain/safety"
	"github.com/adsops/adsops/infrastructure/store/memory"
)

type MockVendorGateway struct {
	mock.Mock
}

func (m *MockVendorGateway) result(args mock.Arguments) (*outbound.MutationResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.MutationResult), args.Error(1)
}

func (m *MockVendorGateway) UpdateCampaignBudget(ctx context.Context, customerID, campaignID string, dailyBudget float64) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, customerID, campaignID, dailyBudget))
}

func (m *MockVendorGateway) AddKeywords(ctx context.Context, customerID, adGroupID, matchType string, keywords []string) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, customerID, adGroupID, matchType, keywords))
}

func (m *MockVendorGateway) AddNegativeKeywords(ctx context.Context, customerID, campaignID, matchType string, keywords []string) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, customerID, campaignID, matchType, keywords))
}

func (m *MockVendorGateway) SetCampaignStatus(ctx context.Context, customerID, campaignID, status string) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, customerID, campaignID, status))
}

func (m *MockVendorGateway) ApplyLabels(ctx context.Context, customerID, campaignID string, labels []string) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, customerID, campaignID, labels))
}

func (m *MockVendorGateway) CreateBidModifier(ctx context.Context, customerID string, spec outbound.BidModifierSpec) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, customerID, spec))
}

func (m *MockVendorGateway) SubmitSitemap(ctx context.Context, siteURL, sitemapURL string) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, siteURL, sitemapURL))
}

func (m *MockVendorGateway) DeleteSitemap(ctx context.Context, siteURL, sitemapURL string) (*outbound.MutationResult, error) {
	return m.result(m.Called(ctx, siteURL, sitemapURL))
}

type nopAuditLog struct{}

func (nopAuditLog) LogWriteOperation(context.Context, string, string, string, map[string]interface{}) error {
	return nil
}

func (nopAuditLog) LogFailedOperation(context.Context, string, string, string, string, map[string]interface{}) error {
	return nil
}

func (nopAuditLog) LogReadOperation(context.Context, string, string, string, map[string]interface{}) error {
	return nil
}

func TestUpdateBudget(t *testing.T) {
	req, err := UpdateBudget(UpdateBudgetInput{SystemName: "Ads", CampaignID: "123", CurrentDailyBudget: 50, NewDailyBudget: 75})
	require.NoError(t, err)

	assert.Equal(t, "Ads", req.SystemName)
	require.Len(t, req.Changes, 1)
	assert.Equal(t, "$50.00/day", req.Changes[0].CurrentValue)
	assert.Equal(t, "$75.00/day", req.Changes[0].NewValue)
	assert.Equal(t, dryrun.ChangeTypeUpdate, req.Changes[0].ChangeType)
	require.NotNil(t, req.FinancialImpact)
	assert.Equal(t, 50.0, req.FinancialImpact.PercentageChange)
	assert.Equal(t, safety.BudgetParams{CurrentDailyBudget: 50, NewDailyBudget: 75}, req.Safety)
}

func TestAddKeywords(t *testing.T) {
	req, err := AddKeywords(KeywordsInput{CustomerID: "111-222-3333", AdGroupID: "456", MatchType: "broad", Keywords: []string{"running shoes", " trail shoes "}})
	require.NoError(t, err)

	assert.Len(t, req.Changes, 2)
	assert.Equal(t, "trail shoes [BROAD]", req.Changes[1].NewValue)
	assert.Equal(t, safety.BatchParams{Kind: safety.BatchKeywords, Size: 2}, req.Safety)
	assert.True(t, req.Target.ItemsRequired)
	assert.Equal(t, "111-222-3333", req.Target.SecondaryIDs["customer_id"])
	assert.NotEmpty(t, req.Risks)
	assert.Equal(t, []string{"running shoes", "trail shoes"}, req.OperationParams["keywords"])

	_, err = AddKeywords(KeywordsInput{AdGroupID: "456", Keywords: []string{"Shoes", "shoes"}})
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	_, err = AddKeywords(KeywordsInput{AdGroupID: "456", MatchType: "fuzzy", Keywords: []string{"shoes"}})
	assert.True(t, errors.Is(err, domainerr.ErrValidation))
}

func TestUpdateCampaignStatus(t *testing.T) {
	req, err := UpdateCampaignStatus(CampaignStatusInput{CampaignID: "123", CurrentStatus: "ENABLED", NewStatus: "removed"})
	require.NoError(t, err)
	assert.Equal(t, dryrun.ChangeTypeDelete, req.Changes[0].ChangeType)
	assert.Equal(t, safety.NoopParams{Destructive: true}, req.Safety)

	_, err = UpdateCampaignStatus(CampaignStatusInput{CampaignID: "123", CurrentStatus: "PAUSED", NewStatus: "PAUSED"})
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	_, err = UpdateCampaignStatus(CampaignStatusInput{CampaignID: "123", NewStatus: "ARCHIVED"})
	assert.True(t, errors.Is(err, domainerr.ErrValidation))
}

func TestCreateBidModifier(t *testing.T) {
	req, err := CreateBidModifier(BidModifierInput{CampaignID: "123", CriterionType: "device", CriterionID: "30001", Percent: -100})
	require.NoError(t, err)
	assert.Equal(t, safety.BidModifierParams{Percent: -100, AllowExclusion: true}, req.Safety)
	assert.Equal(t, "-100%", req.Changes[0].NewValue)
	assert.NotEmpty(t, req.Risks)

	req, err = CreateBidModifier(BidModifierInput{CampaignID: "123", CriterionType: "LOCATION", CriterionID: "2840", Percent: 25})
	require.NoError(t, err)
	assert.Equal(t, "+25%", req.Changes[0].NewValue)
	assert.False(t, req.Safety.(safety.BidModifierParams).AllowExclusion)
}

func TestSitemaps(t *testing.T) {
	req, err := SubmitSitemap(SitemapInput{SiteURL: "https://example.com/", SitemapURL: "https://example.com/sitemap.xml"})
	require.NoError(t, err)
	assert.Equal(t, SystemSearchConsole, req.SystemName)
	assert.Equal(t, safety.IDURL, req.Target.ResourceKind)
	assert.Empty(t, req.Risks)

	req, err = DeleteSitemap(SitemapInput{SiteURL: "sc-domain:example.com", SitemapURL: "https://cdn.other.net/sitemap.xml"})
	require.NoError(t, err)
	assert.Equal(t, dryrun.ChangeTypeDelete, req.Changes[0].ChangeType)
	assert.Len(t, req.Risks, 2)
}

func TestBuild(t *testing.T) {
	req, err := Build(OpApplyLabels, []byte(`{"campaign_id":"123","labels":["q3-promo"]}`))
	require.NoError(t, err)
	assert.Equal(t, OpApplyLabels, req.OperationName)

	_, err = Build("drop_account", []byte(`{}`))
	assert.True(t, errors.Is(err, domainerr.ErrBadRequest))

	_, err = Build(OpApplyLabels, []byte(`{"campaign":"123"}`))
	assert.True(t, errors.Is(err, domainerr.ErrBadRequest))

	assert.Len(t, Names(), 8)
}

func TestExecutor_DecodesRoundTrippedParams(t *testing.T) {
	gateway := new(MockVendorGateway)
	gateway.On("AddNegativeKeywords", mock.Anything, "", "123", "EXACT", []string{"free", "cheap"}).
		Return(&outbound.MutationResult{Applied: 2}, nil).Once()

	execute := NewExecutor(gateway)
	pc := &entity.PendingConfirmation{
		DryRun: dryrun.Result{OperationName: OpAddNegativeKeywords},
		OperationParams: map[string]interface{}{
			"campaign_id": "123",
			"match_type":  "EXACT",
			"keywords":    []interface{}{"free", "cheap"},
		},
	}

	result, err := execute(context.Background(), pc)
	require.NoError(t, err)
	assert.Equal(t, 2, result.(*outbound.MutationResult).Applied)
	gateway.AssertExpectations(t)

	_, err = execute(context.Background(), &entity.PendingConfirmation{DryRun: dryrun.Result{OperationName: "unknown"}})
	assert.Error(t, err)
}

func TestBudgetThroughEnforcer(t *testing.T) {
	gateway := new(MockVendorGateway)
	gateway.On("UpdateCampaignBudget", mock.Anything, "", "123", 75.0).
		Return(&outbound.MutationResult{System: SystemAds, Applied: 1}, nil).Once()

	enforcer, err := usecase.NewApprovalEnforcer(memory.NewConfirmationStore(0, nil), nopAuditLog{}, nil, nil, time.Minute)
	require.NoError(t, err)

	req, err := UpdateBudget(UpdateBudgetInput{SystemName: "Ads", CampaignID: "123", CurrentDailyBudget: 50, NewDailyBudget: 75})
	require.NoError(t, err)
	req.Actor = "agent-1"

	resp, err := enforcer.CreateDryRun(context.Background(), req)
	require.NoError(t, err)

	confirm := inbound.ConfirmRequest{Token: resp.ConfirmationToken, DryRun: resp.DryRun, Actor: "agent-1"}
	_, err = enforcer.ValidateAndExecute(context.Background(), confirm, NewExecutor(gateway))
	require.NoError(t, err)

	_, err = enforcer.ValidateAndExecute(context.Background(), confirm, NewExecutor(gateway))
	assert.True(t, errors.Is(err, domainerr.ErrTokenAlreadyConsumed))
	gateway.AssertExpectations(t)
}
