package inmemory

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// NewJobStoreProvider creates the store and ties its lifetime to the application:
// it is empty at startup and cleared at shutdown.
func NewJobStoreProvider(lc fx.Lifecycle) repository.JobStore {
	store := NewInMemoryJobStore()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Debugf("InMemoryJobStore: ready.")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store
}

// Module provides the in-memory JobStore.
var Module = fx.Options(
	fx.Provide(NewJobStoreProvider),
)
