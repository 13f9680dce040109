package safety

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerr "github.com/adsops/adsops/domain/error"
)

func TestVaguenessGuard_DetectAndEnforceVagueness(t *testing.T) {
	guard := NewVaguenessGuard()

	tests := []struct {
		name      string
		inputText string
		target    Target
		wantErr   bool
	}{
		{
			name:   "concrete numeric id",
			target: Target{ResourceID: "123", ResourceKind: IDNumeric},
		},
		{
			name:   "dash grouped customer id",
			target: Target{ResourceID: "123-456-7890", ResourceKind: IDNumeric},
		},
		{
			name:    "description instead of id",
			target:  Target{ResourceID: "the main campaign", ResourceKind: IDNumeric},
			wantErr: true,
		},
		{
			name:    "single vague word",
			target:  Target{ResourceID: "all", ResourceKind: IDNumeric},
			wantErr: true,
		},
		{
			name:    "name instead of id",
			target:  Target{ResourceID: "BrandCampaign", ResourceKind: IDNumeric},
			wantErr: true,
		},
		{
			name:    "missing id",
			target:  Target{ResourceKind: IDNumeric},
			wantErr: true,
		},
		{
			name:    "vague secondary id",
			target:  Target{ResourceID: "123", SecondaryIDs: map[string]string{"ad_group_id": "best ad group"}},
			wantErr: true,
		},
		{
			name:   "concrete secondary id",
			target: Target{ResourceID: "123", SecondaryIDs: map[string]string{"ad_group_id": "987"}},
		},
		{
			name:    "bulk without items",
			target:  Target{ResourceID: "123", ItemsRequired: true},
			wantErr: true,
		},
		{
			name:    "bulk with blank item",
			target:  Target{ResourceID: "123", ItemsRequired: true, Items: []string{"shoes", "  "}},
			wantErr: true,
		},
		{
			name:      "unbounded bulk phrasing",
			inputText: "add many keywords about running",
			target:    Target{ResourceID: "123", ItemsRequired: true, Items: []string{"running shoes"}},
			wantErr:   true,
		},
		{
			name:      "all campaigns phrasing",
			inputText: "pause all of my campaigns",
			target:    Target{ResourceID: "123"},
			wantErr:   true,
		},
		{
			name:      "enumerated keywords",
			inputText: "add keywords running shoes and trail shoes to ad group 987",
			target:    Target{ResourceID: "123", ItemsRequired: true, Items: []string{"running shoes", "trail shoes"}},
		},
		{
			name:   "site url",
			target: Target{ResourceID: "https://example.com/", ResourceKind: IDURL},
		},
		{
			name:   "domain property",
			target: Target{ResourceID: "sc-domain:example.com", ResourceKind: IDURL},
		},
		{
			name:    "site described",
			target:  Target{ResourceID: "my website", ResourceKind: IDURL},
			wantErr: true,
		},
		{
			name:    "relative sitemap url",
			target:  Target{ResourceID: "https://example.com/", ResourceKind: IDURL, SecondaryKind: IDURL, SecondaryIDs: map[string]string{"sitemap_url": "/sitemap.xml"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.DetectAndEnforceVagueness("op", tt.inputText, tt.target)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domainerr.ErrVagueness), "expected vagueness error, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVaguenessGuard_ErrorNamesOperation(t *testing.T) {
	err := NewVaguenessGuard().DetectAndEnforceVagueness("update_budget", "", Target{ResourceID: "the main campaign"})

	var appErr *domainerr.AppError
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Contains(t, appErr.Details, "update_budget")
		assert.Contains(t, appErr.Details, "the main campaign")
	}
}
