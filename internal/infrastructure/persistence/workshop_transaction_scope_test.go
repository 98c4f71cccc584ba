package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/atelier/backend/internal/application/workshop"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	t.Run("commits when the function succeeds", func(t *testing.T) {
		batch := newTestBatch(t, "B-TX1")

		err := scope.Execute(ctx, func(repos workshop.TransactionalRepositories) error {
			return repos.Batches().Save(ctx, batch)
		})
		require.NoError(t, err)

		found, err := NewGormBatchRepository(db).FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, "B-TX1", found.Code)
	})

	t.Run("rolls back every write when the function fails", func(t *testing.T) {
		batch := newTestBatch(t, "B-TX2")
		boom := errors.New("boom")

		err := scope.Execute(ctx, func(repos workshop.TransactionalRepositories) error {
			if err := repos.Batches().Save(ctx, batch); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormBatchRepository(db).FindByID(ctx, batch.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("repositories share the same transaction", func(t *testing.T) {
		batch := newTestBatch(t, "B-TX3")

		err := scope.Execute(ctx, func(repos workshop.TransactionalRepositories) error {
			if err := repos.Batches().Save(ctx, batch); err != nil {
				return err
			}
			// A read inside the transaction sees the uncommitted write
			found, err := repos.Batches().FindByID(ctx, batch.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, batch.ID, found.ID)
			return nil
		})
		require.NoError(t, err)
	})
}
