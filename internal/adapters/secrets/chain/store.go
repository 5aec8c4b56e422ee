// Package chain combines a durable and a fallback secret store into the
// session token store.
//
// Reads prefer the durable tier and fall back to the fallback tier; a value
// found only in the fallback tier is copied forward into the durable tier
// before it is returned. Writes go to both tiers so the fallback tier is
// independently sufficient. Errors are logged and never returned.
package chain

import (
	"context"
	"errors"
	"path/filepath"

	filestore "github.com/bnema/allergyscan-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/allergyscan-cli/internal/adapters/secrets/pass"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/logger"
	"github.com/bnema/allergyscan-cli/internal/ports"
	"go.uber.org/zap"
)

type Store struct {
	durable  ports.SecretStore
	fallback ports.SecretStore
	log      *zap.Logger
}

var _ ports.TokenStore = (*Store)(nil)

var errNilFallbackStore = errors.New("fallback secret store is nil")

// NewStore builds a token store. durable may be nil, in which case every
// operation uses the fallback tier only.
func NewStore(durable ports.SecretStore, fallback ports.SecretStore, log *zap.Logger) *Store {
	store, err := NewStoreChecked(durable, fallback, log)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(durable ports.SecretStore, fallback ports.SecretStore, log *zap.Logger) (*Store, error) {
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{durable: durable, fallback: fallback, log: logger.OrNop(log)}, nil
}

// NewPassFirstWithFileFallback uses pass as the durable tier when the binary
// is installed and keeps 0600 files under fileRoot as the fallback tier.
func NewPassFirstWithFileFallback(passPrefix string, fileRoot string, log *zap.Logger) *Store {
	var durable ports.SecretStore
	if passstore.Available() {
		durable = passstore.NewStore(passPrefix)
	} else {
		logger.OrNop(log).Debug("pass not installed, token store uses file tier only")
	}

	return NewStore(durable, filestore.NewStore(filepath.Clean(fileRoot)), log)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if s.durable != nil {
		value, err := s.durable.Get(ctx, key)
		if err == nil {
			return value, true
		}
		if shouldSkipFallback(err) {
			return "", false
		}
		if !errors.Is(err, domain.ErrSecretNotFound) {
			s.log.Warn("durable token store read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := s.fallback.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrSecretNotFound) && !shouldSkipFallback(err) {
			s.log.Warn("fallback token store read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}

	if s.durable != nil {
		if err := s.durable.Put(ctx, key, value); err != nil {
			s.log.Warn("copy token forward to durable store failed", zap.String("key", key), zap.Error(err))
		} else {
			s.log.Debug("migrated token from fallback to durable store", zap.String("key", key))
		}
	}

	return value, true
}

func (s *Store) Set(ctx context.Context, key string, value string) {
	if s.durable != nil {
		err := s.durable.Put(ctx, key, value)
		if err != nil {
			if shouldSkipFallback(err) {
				return
			}
			s.log.Warn("durable token store write failed", zap.String("key", key), zap.Error(err))
		}
	}

	if err := s.fallback.Put(ctx, key, value); err != nil {
		s.log.Warn("fallback token store write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) Remove(ctx context.Context, key string) {
	if s.durable != nil {
		if err := s.durable.Delete(ctx, key); err != nil {
			s.log.Warn("durable token store delete failed", zap.String("key", key), zap.Error(err))
		}
	}

	if err := s.fallback.Delete(ctx, key); err != nil {
		s.log.Warn("fallback token store delete failed", zap.String("key", key), zap.Error(err))
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
