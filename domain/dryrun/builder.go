// Package dryrun assembles and renders previews of write operations.
package dryrun

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	domainerr "github.com/adsops/adsops/domain/error"
)

// Result is the immutable preview of an operation. Values returned by
// Builder.Build own their slices; nothing retained by the builder aliases them.
type Result struct {
	OperationName   string           `json:"operation_name"`
	SystemName      string           `json:"system_name"`
	ResourceID      string           `json:"resource_id"`
	Changes         []Change         `json:"changes"`
	Risks           []string         `json:"risks"`
	Recommendations []string         `json:"recommendations"`
	FinancialImpact *FinancialImpact `json:"financial_impact,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Fingerprint returns a hex BLAKE2b-256 digest of the canonical JSON
// encoding. Two results are structurally equal iff their fingerprints are.
// A result that cannot be encoded has an empty fingerprint.
func (r Result) Fingerprint() string {
	canonical := r
	canonical.CreatedAt = r.CreatedAt.UTC()
	if canonical.Risks == nil {
		canonical.Risks = []string{}
	}
	if canonical.Recommendations == nil {
		canonical.Recommendations = []string{}
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two results describe the same preview
func (r Result) Equal(other Result) bool {
	fp := r.Fingerprint()
	return fp != "" && fp == other.Fingerprint()
}

// Builder accumulates the parts of a preview
type Builder struct {
	operationName   string
	systemName      string
	resourceID      string
	changes         []Change
	risks           []string
	recommendations []string
	financialImpact *FinancialImpact
	now             func() time.Time
}

// NewBuilder creates a builder for one operation on one resource
func NewBuilder(operationName, systemName, resourceID string) *Builder {
	return &Builder{
		operationName: operationName,
		systemName:    systemName,
		resourceID:    resourceID,
		now:           time.Now,
	}
}

// WithClock overrides the time source stamped into CreatedAt
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

func (b *Builder) AddChange(change Change) *Builder {
	b.changes = append(b.changes, change)
	return b
}

func (b *Builder) AddRisk(risk string) *Builder {
	b.risks = append(b.risks, risk)
	return b
}

func (b *Builder) AddRecommendation(recommendation string) *Builder {
	b.recommendations = append(b.recommendations, recommendation)
	return b
}

func (b *Builder) SetFinancialImpact(impact FinancialImpact) *Builder {
	b.financialImpact = &impact
	return b
}

// Build returns the finished preview. It fails when no change was added, a
// change carries an unknown change type or the financial impact holds a
// non-finite number.
func (b *Builder) Build() (Result, error) {
	if len(b.changes) == 0 {
		return Result{}, domainerr.NewEmptyDryRunError(b.operationName)
	}
	for i, c := range b.changes {
		if !c.ChangeType.IsValid() {
			return Result{}, domainerr.NewValidationError(fmt.Sprintf("change %d has unknown change type %q", i, c.ChangeType))
		}
	}
	if b.financialImpact != nil && !b.financialImpact.finite() {
		return Result{}, domainerr.NewValidationError("financial impact must contain finite numbers")
	}

	result := Result{
		OperationName:   b.operationName,
		SystemName:      b.systemName,
		ResourceID:      b.resourceID,
		Changes:         append([]Change(nil), b.changes...),
		Risks:           append([]string{}, b.risks...),
		Recommendations: append([]string{}, b.recommendations...),
		CreatedAt:       b.now().UTC().Truncate(time.Millisecond),
	}
	if b.financialImpact != nil {
		impact := *b.financialImpact
		result.FinancialImpact = &impact
	}
	return result, nil
}
