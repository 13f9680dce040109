// Package memory is the single-process confirmation store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/entity"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/service/logger"
	"github.com/adsops/adsops/infrastructure/store"
)

// ConfirmationStore keeps pending confirmations in a mutex-guarded map.
// Expiry is enforced lazily in Consume; Purge only reclaims memory.
type ConfirmationStore struct {
	mu        sync.Mutex
	records   map[string]*entity.PendingConfirmation
	retention time.Duration
	logger    logger.Logger
}

var _ outbound.ConfirmationStore = (*ConfirmationStore)(nil)

func NewConfirmationStore(retention time.Duration, log logger.Logger) *ConfirmationStore {
	if retention <= 0 {
		retention = store.DefaultRetention
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ConfirmationStore{
		records:   make(map[string]*entity.PendingConfirmation),
		retention: retention,
		logger:    log,
	}
}

func (s *ConfirmationStore) GenerateToken() (string, error) {
	return store.GenerateToken()
}

func (s *ConfirmationStore) Put(ctx context.Context, pc *entity.PendingConfirmation) error {
	if pc == nil || pc.Token == "" {
		return domainerr.NewStoreError("put", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[pc.Token]; exists {
		return domainerr.NewAppError(domainerr.ErrCodeStore, domainerr.ErrStore.Message, "token already stored", nil)
	}
	s.records[pc.Token] = pc.Clone()
	return nil
}

func (s *ConfirmationStore) Consume(ctx context.Context, token string, now time.Time) (*entity.PendingConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.records[token]
	if !ok {
		return nil, domainerr.NewTokenNotFoundError()
	}
	if pc.Consumed {
		return nil, domainerr.NewTokenAlreadyConsumedError()
	}
	if pc.IsExpired(now) {
		return nil, domainerr.NewTokenExpiredError(pc.ExpiresAt.Format(time.RFC3339))
	}

	pc.MarkConsumed(now)
	return pc.Clone(), nil
}

func (s *ConfirmationStore) Purge(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, pc := range s.records {
		if s.stale(pc, now) {
			delete(s.records, token)
			removed++
		}
	}
	return removed, nil
}

func (s *ConfirmationStore) stale(pc *entity.PendingConfirmation, now time.Time) bool {
	if pc.Consumed && pc.ConsumedAt != nil && now.Sub(*pc.ConsumedAt) >= s.retention {
		return true
	}
	return now.Sub(pc.ExpiresAt) >= s.retention
}

// Len returns the number of records currently held
func (s *ConfirmationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// StartJanitor purges stale records every interval until ctx is done
func (s *ConfirmationStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, _ := s.Purge(ctx, now)
				if removed > 0 {
					s.logger.Debug(ctx, "Purged stale confirmations", map[string]interface{}{
						"removed": removed,
					})
				}
			}
		}
	}()
}
