package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adsops/adsops/application/port/inbound"
	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/dryrun"
	"github.com/adsops/adsops/domain/entity"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/domain/safety"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

// DefaultConfirmationTTL is how long a minted token stays usable
const DefaultConfirmationTTL = 60 * time.Second

// ApprovalEnforcer gates every write behind a preview and a single-use token
type ApprovalEnforcer struct {
	store     outbound.ConfirmationStore
	auditLog  outbound.AuditLog
	validator *safety.Validator
	guard     *safety.VaguenessGuard
	logger    logger.Logger
	ttl       time.Duration
	now       func() time.Time
}

var _ inbound.ApprovalUseCase = (*ApprovalEnforcer)(nil)

// NewApprovalEnforcer wires the enforcer. A store and an audit log are
// required; validator, logger and ttl fall back to defaults.
func NewApprovalEnforcer(
	store outbound.ConfirmationStore,
	auditLog outbound.AuditLog,
	validator *safety.Validator,
	log logger.Logger,
	ttl time.Duration,
) (*ApprovalEnforcer, error) {
	if store == nil {
		return nil, errors.New("approval enforcer: confirmation store is required")
	}
	if auditLog == nil {
		return nil, errors.New("approval enforcer: audit log is required")
	}
	if validator == nil {
		validator = safety.NewValidator(safety.DefaultConfig())
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	return &ApprovalEnforcer{
		store:     store,
		auditLog:  auditLog,
		validator: validator,
		guard:     safety.NewVaguenessGuard(),
		logger:    log.WithFields(map[string]interface{}{"component": "approval_enforcer"}),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests to drive expiry
func (e *ApprovalEnforcer) WithClock(now func() time.Time) *ApprovalEnforcer {
	if now != nil {
		e.now = now
	}
	return e
}

// TTL returns the confirmation lifetime
func (e *ApprovalEnforcer) TTL() time.Duration {
	return e.ttl
}

// CreateDryRun validates a proposed write, builds its preview and mints a
// confirmation token. Nothing is stored when any step fails.
func (e *ApprovalEnforcer) CreateDryRun(ctx context.Context, req inbound.DryRunRequest) (*inbound.DryRunResponse, error) {
	if req.OperationName == "" {
		return nil, domainerr.NewBadRequestError("operation name is required")
	}

	report, err := e.validator.Check(req.Safety)
	if err != nil {
		e.auditFailure(ctx, req.Actor, req.OperationName, req.ResourceID, err, map[string]interface{}{
			"stage": "safety",
		})
		return nil, err
	}

	target := req.Target
	if target.ResourceID == "" {
		target.ResourceID = req.ResourceID
	}
	if err := e.guard.DetectAndEnforceVagueness(req.OperationName, req.InputText, target); err != nil {
		e.auditFailure(ctx, req.Actor, req.OperationName, req.ResourceID, err, map[string]interface{}{
			"stage":      "vagueness",
			"input_text": req.InputText,
		})
		return nil, err
	}

	builder := dryrun.NewBuilder(req.OperationName, req.SystemName, req.ResourceID).WithClock(e.now)
	for _, change := range req.Changes {
		builder.AddChange(change)
	}
	for _, risk := range req.Risks {
		builder.AddRisk(risk)
	}
	for _, warning := range report.Warnings {
		builder.AddRisk(warning)
	}
	for _, rec := range req.Recommendations {
		builder.AddRecommendation(rec)
	}
	if req.FinancialImpact != nil {
		builder.SetFinancialImpact(*req.FinancialImpact)
	}

	result, err := builder.Build()
	if err != nil {
		e.auditFailure(ctx, req.Actor, req.OperationName, req.ResourceID, err, map[string]interface{}{
			"stage": "build",
		})
		return nil, err
	}

	token, err := e.store.GenerateToken()
	if err != nil {
		storeErr := domainerr.NewStoreError("generate token", err)
		e.logger.Error(ctx, "Failed to generate confirmation token", err, nil)
		return nil, storeErr
	}

	pending := entity.NewPendingConfirmation(uuid.NewString(), token, req.Actor, result, req.OperationParams, e.now(), e.ttl)
	if err := e.store.Put(ctx, pending); err != nil {
		e.logger.Error(ctx, "Failed to store pending confirmation", err, map[string]interface{}{
			"operation": req.OperationName,
		})
		var appErr *domainerr.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, domainerr.NewStoreError("put", err)
	}

	logger.LogApprovalEvent(ctx, e.logger, "dry_run_created", req.Actor, req.OperationName, true, map[string]interface{}{
		"confirmation_id": pending.ID,
		"resource_id":     req.ResourceID,
		"risk":            report.Risk,
		"expires_at":      pending.ExpiresAt,
	})

	return &inbound.DryRunResponse{
		ConfirmationToken: token,
		DryRun:            result,
		Preview:           dryrun.Format(result),
		RiskLevel:         report.Risk,
		ExpiresAt:         pending.ExpiresAt,
	}, nil
}

// ValidateAndExecute consumes the token, checks the presented dry run against
// the stored snapshot and runs execute exactly once. The token is spent even
// when execute fails.
func (e *ApprovalEnforcer) ValidateAndExecute(ctx context.Context, req inbound.ConfirmRequest, execute inbound.Executor) (interface{}, error) {
	if execute == nil {
		return nil, domainerr.NewBadRequestError("no executor supplied")
	}

	pending, err := e.store.Consume(ctx, req.Token, e.now())
	if err != nil {
		details := map[string]interface{}{"stage": "consume"}
		if state := rejectedState(err); state != "" {
			details["state"] = state
		}
		e.auditFailure(ctx, req.Actor, req.DryRun.OperationName, req.DryRun.ResourceID, err, details)
		return nil, err
	}

	logger.LogApprovalEvent(ctx, e.logger, "token_consumed", req.Actor, pending.DryRun.OperationName, true, map[string]interface{}{
		"confirmation_id": pending.ID,
	})

	if !pending.DryRun.Equal(req.DryRun) {
		err := domainerr.NewConsistencyError(pending.DryRun.Fingerprint(), req.DryRun.Fingerprint())
		e.auditFailure(ctx, req.Actor, pending.DryRun.OperationName, pending.DryRun.ResourceID, err, map[string]interface{}{
			"stage":           "consistency",
			"state":           entity.ConfirmationRejected,
			"confirmation_id": pending.ID,
		})
		return nil, err
	}

	started := e.now()
	result, err := execute(ctx, pending)
	if err != nil {
		e.auditFailure(ctx, req.Actor, pending.DryRun.OperationName, pending.DryRun.ResourceID, err, map[string]interface{}{
			"stage":            "execute",
			"state":            pending.State(e.now()),
			"error_code":       domainerr.ErrCodeExecutorFailed,
			"confirmation_id":  pending.ID,
			"operation_params": pending.OperationParams,
		})
		return nil, err
	}
	logger.LogPerformance(ctx, e.logger, pending.DryRun.OperationName, e.now().Sub(started), nil)

	details := map[string]interface{}{
		"confirmation_id":  pending.ID,
		"state":            pending.State(e.now()),
		"minted_by":        pending.Actor,
		"system":           pending.DryRun.SystemName,
		"dry_run":          pending.DryRun,
		"operation_params": pending.OperationParams,
		"result":           result,
	}
	if err := e.auditLog.LogWriteOperation(ctx, req.Actor, pending.DryRun.OperationName, pending.DryRun.ResourceID, details); err != nil {
		// The mutation already happened.
		e.logger.Error(ctx, "Failed to record write operation", err, map[string]interface{}{
			"confirmation_id": pending.ID,
			"operation":       pending.DryRun.OperationName,
		})
	}

	logger.LogApprovalEvent(ctx, e.logger, "write_executed", req.Actor, pending.DryRun.OperationName, true, map[string]interface{}{
		"confirmation_id": pending.ID,
		"resource_id":     pending.DryRun.ResourceID,
	})
	return result, nil
}

// RecordRead forwards read-only tool activity to the audit log
func (e *ApprovalEnforcer) RecordRead(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	if operationName == "" {
		return domainerr.NewBadRequestError("operation name is required")
	}
	if err := e.auditLog.LogReadOperation(ctx, actor, operationName, resourceID, details); err != nil {
		e.logger.Error(ctx, "Failed to record read operation", err, map[string]interface{}{
			"operation": operationName,
		})
		return domainerr.NewAuditError("log read", err)
	}
	return nil
}

func (e *ApprovalEnforcer) auditFailure(ctx context.Context, actor, operationName, resourceID string, cause error, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	if _, ok := details["error_code"]; !ok {
		if code := domainerr.CodeOf(cause); code != "" {
			details["error_code"] = code
		}
	}

	logger.LogApprovalEvent(ctx, e.logger, "operation_rejected", actor, operationName, false, map[string]interface{}{
		"resource_id": resourceID,
		"error":       cause.Error(),
		"stage":       details["stage"],
	})

	if err := e.auditLog.LogFailedOperation(ctx, actor, operationName, resourceID, cause.Error(), details); err != nil {
		e.logger.Error(ctx, "Failed to record failed operation", err, map[string]interface{}{
			"operation": operationName,
		})
	}
}

// rejectedState maps a consume failure to the lifecycle state that caused it
func rejectedState(err error) entity.ConfirmationState {
	switch {
	case errors.Is(err, domainerr.ErrTokenExpired):
		return entity.ConfirmationExpired
	case errors.Is(err, domainerr.ErrTokenAlreadyConsumed):
		return entity.ConfirmationConsumed
	}
	return ""
}
