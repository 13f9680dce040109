package outbound

import (
	"context"
	"time"

	"github.com/adsops/adsops/domain/entity"
)

// ConfirmationStore owns pending confirmations. It is the only component
// allowed to mutate them.
type ConfirmationStore interface {
	// GenerateToken returns a new opaque token with at least 128 bits of
	// cryptographic randomness.
	GenerateToken() (string, error)

	// Put stores a pending confirmation under its token.
	Put(ctx context.Context, pc *entity.PendingConfirmation) error

	// Consume atomically looks up the token, rejects it when missing,
	// consumed or expired at now, and otherwise marks it consumed and returns
	// the record. Two concurrent calls for one token never both succeed.
	Consume(ctx context.Context, token string, now time.Time) (*entity.PendingConfirmation, error)

	// Purge drops records no longer useful for diagnostics and returns how
	// many were removed. It is not needed for correctness.
	Purge(ctx context.Context, now time.Time) (int, error)
}
