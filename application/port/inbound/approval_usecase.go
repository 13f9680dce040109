package inbound

import (
	"context"
	"time"

	"github.com/adsops/adsops/domain/dryrun"
	"github.com/adsops/adsops/domain/entity"
	"github.com/adsops/adsops/domain/safety"
)

// DryRunRequest is everything a tool handler knows about a proposed write.
// The enforcer is operation-agnostic: changes, risks and recommendations come
// from the caller, the enforcer only adds the safety warnings.
type DryRunRequest struct {
	OperationName string
	SystemName    string
	ResourceID    string
	Actor         string
	// InputText is the phrasing the request arrived with, checked for
	// unbounded bulk wording.
	InputText string

	Safety safety.Params
	Target safety.Target

	Changes         []dryrun.Change
	Risks           []string
	Recommendations []string
	FinancialImpact *dryrun.FinancialImpact

	// OperationParams is stored with the token and handed to the executor.
	OperationParams map[string]interface{}
}

type DryRunResponse struct {
	ConfirmationToken string           `json:"confirmation_token"`
	DryRun            dryrun.Result    `json:"dry_run"`
	Preview           string           `json:"preview"`
	RiskLevel         safety.RiskLevel `json:"risk_level"`
	ExpiresAt         time.Time        `json:"expires_at"`
}

type ConfirmRequest struct {
	Token  string        `json:"token"`
	DryRun dryrun.Result `json:"dry_run"`
	Actor  string        `json:"-"`
}

// Executor performs the confirmed mutation. It receives the consumed record
// so it acts on the parameters that were previewed.
type Executor func(ctx context.Context, pc *entity.PendingConfirmation) (interface{}, error)

type ApprovalUseCase interface {
	CreateDryRun(ctx context.Context, req DryRunRequest) (*DryRunResponse, error)
	ValidateAndExecute(ctx context.Context, req ConfirmRequest, execute Executor) (interface{}, error)
	RecordRead(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error
}
