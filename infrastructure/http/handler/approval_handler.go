package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adsops/adsops/application/port/inbound"
	"github.com/adsops/adsops/application/usecase/operation"
	"github.com/adsops/adsops/domain/dryrun"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/http/middleware"
	"github.com/adsops/adsops/infrastructure/http/response"
	"github.com/adsops/adsops/infrastructure/http/validator"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

const maxBodyBytes = 1 << 20

type ApprovalHandler struct {
	approval inbound.ApprovalUseCase
	execute  inbound.Executor
	logger   logger.Logger
}

func NewApprovalHandler(approval inbound.ApprovalUseCase, execute inbound.Executor, log logger.Logger) *ApprovalHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ApprovalHandler{
		approval: approval,
		execute:  execute,
		logger:   log,
	}
}

type ConfirmBody struct {
	DryRun dryrun.Result `json:"dry_run"`
}

type ConfirmResponse struct {
	OperationName string      `json:"operation_name"`
	Result        interface{} `json:"result"`
}

type ReadBody struct {
	ResourceID string                 `json:"resource_id"`
	Details    map[string]interface{} `json:"details"`
}

// RegisterRoutes mounts the write-gate endpoints under /api/v1. Confirmations
// pass through the rate limiter after authentication so attempts are counted
// per actor.
func (h *ApprovalHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.RequireAuth)

	api.HandleFunc("/operations", h.ListOperations).Methods(http.MethodGet)
	api.HandleFunc("/operations/{operation}/dry-run", h.DryRun).Methods(http.MethodPost)
	api.HandleFunc("/reads/{operation}", h.RecordRead).Methods(http.MethodPost)

	confirm := http.Handler(http.HandlerFunc(h.Confirm))
	if limiter != nil {
		confirm = limiter.LimitConfirmations(confirm)
	}
	api.Handle("/confirmations/{token}", confirm).Methods(http.MethodPost)
}

func (h *ApprovalHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "success", map[string]interface{}{
		"operations": operation.Names(),
	})
}

func (h *ApprovalHandler) DryRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := logger.CorrelationIDFromContext(ctx)

	name := mux.Vars(r)["operation"]
	if !validator.ValidateOperationName(name) {
		response.AppError(w, domainerr.NewBadRequestError("invalid operation name"), traceID)
		return
	}

	body, err := readBody(r)
	if err != nil {
		response.AppError(w, err, traceID)
		return
	}

	req, err := operation.Build(name, body)
	if err != nil {
		response.AppError(w, err, traceID)
		return
	}
	req.Actor = middleware.ActorFromContext(ctx)

	res, err := h.approval.CreateDryRun(ctx, req)
	if err != nil {
		response.AppError(w, err, traceID)
		return
	}
	response.Success(w, http.StatusCreated, "dry run created, confirm to execute", res)
}

func (h *ApprovalHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := logger.CorrelationIDFromContext(ctx)

	var body ConfirmBody
	if err := decodeJSON(r, &body); err != nil {
		response.AppError(w, err, traceID)
		return
	}

	token := mux.Vars(r)["token"]
	if !validator.ValidateConfirmationToken(token) {
		// Malformed tokens can never exist in the store.
		h.logger.Warn(ctx, "Malformed confirmation token", map[string]interface{}{
			"actor": middleware.ActorFromContext(ctx),
		})
		response.AppError(w, domainerr.NewTokenNotFoundError(), traceID)
		return
	}

	result, err := h.approval.ValidateAndExecute(ctx, inbound.ConfirmRequest{
		Token:  token,
		DryRun: body.DryRun,
		Actor:  middleware.ActorFromContext(ctx),
	}, h.execute)
	if err != nil {
		if domainerr.CodeOf(err) == "" {
			h.logger.Error(ctx, "Confirmed operation failed", err, map[string]interface{}{
				"operation": body.DryRun.OperationName,
			})
		}
		response.AppError(w, err, traceID)
		return
	}

	response.Success(w, http.StatusOK, "operation executed", ConfirmResponse{
		OperationName: body.DryRun.OperationName,
		Result:        result,
	})
}

func (h *ApprovalHandler) RecordRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := logger.CorrelationIDFromContext(ctx)

	name := mux.Vars(r)["operation"]
	if !validator.ValidateOperationName(name) {
		response.AppError(w, domainerr.NewBadRequestError("invalid operation name"), traceID)
		return
	}

	var body ReadBody
	if err := decodeJSON(r, &body); err != nil {
		response.AppError(w, err, traceID)
		return
	}

	if err := h.approval.RecordRead(ctx, middleware.ActorFromContext(ctx), name, body.ResourceID, body.Details); err != nil {
		response.AppError(w, err, traceID)
		return
	}
	response.Success(w, http.StatusAccepted, "read recorded", nil)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, domainerr.NewBadRequestError("failed to read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, domainerr.NewBadRequestError("request body too large")
	}
	return body, nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domainerr.NewBadRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
