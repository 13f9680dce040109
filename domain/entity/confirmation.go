package entity

import (
	"time"

	"github.com/adsops/adsops/domain/dryrun"
)

// ConfirmationState is the lifecycle position of a pending confirmation.
// Rejected marks a token spent by a confirm whose dry run did not match.
type ConfirmationState string

const (
	ConfirmationCreated  ConfirmationState = "CREATED"
	ConfirmationConsumed ConfirmationState = "CONSUMED"
	ConfirmationExpired  ConfirmationState = "EXPIRED"
	ConfirmationRejected ConfirmationState = "REJECTED"
)

// PendingConfirmation binds a confirmation token to the preview it authorizes.
// Only the confirmation store mutates it.
type PendingConfirmation struct {
	ID              string                 `json:"id"`
	Token           string                 `json:"-"`
	Actor           string                 `json:"actor"`
	DryRun          dryrun.Result          `json:"dry_run"`
	OperationParams map[string]interface{} `json:"operation_params"`
	CreatedAt       time.Time              `json:"created_at"`
	ExpiresAt       time.Time              `json:"expires_at"`
	Consumed        bool                   `json:"consumed"`
	ConsumedAt      *time.Time             `json:"consumed_at,omitempty"`
}

func NewPendingConfirmation(id, token, actor string, snapshot dryrun.Result, params map[string]interface{}, createdAt time.Time, ttl time.Duration) *PendingConfirmation {
	createdAt = createdAt.UTC()
	return &PendingConfirmation{
		ID:              id,
		Token:           token,
		Actor:           actor,
		DryRun:          snapshot,
		OperationParams: params,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(ttl),
	}
}

// IsExpired reports whether the token validity window has closed at now
func (pc *PendingConfirmation) IsExpired(now time.Time) bool {
	return !now.Before(pc.ExpiresAt)
}

// MarkConsumed flips the record to consumed. Callers hold the store's lock.
func (pc *PendingConfirmation) MarkConsumed(now time.Time) {
	at := now.UTC()
	pc.Consumed = true
	pc.ConsumedAt = &at
}

// State derives the lifecycle state at now
func (pc *PendingConfirmation) State(now time.Time) ConfirmationState {
	switch {
	case pc.Consumed:
		return ConfirmationConsumed
	case pc.IsExpired(now):
		return ConfirmationExpired
	}
	return ConfirmationCreated
}

// Clone returns a copy safe to hand outside the store
func (pc *PendingConfirmation) Clone() *PendingConfirmation {
	cp := *pc
	if pc.OperationParams != nil {
		cp.OperationParams = make(map[string]interface{}, len(pc.OperationParams))
		for k, v := range pc.OperationParams {
			cp.OperationParams[k] = v
		}
	}
	if pc.ConsumedAt != nil {
		at := *pc.ConsumedAt
		cp.ConsumedAt = &at
	}
	return &cp
}
