package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"omnichannel/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// These tests need a real database. Set POSTGRES_TEST_DSN to run them, e.g.
// "host=localhost user=postgres dbname=omnichannel_test sslmode=disable".
func newIntegrationRepo(t *testing.T) *ClientRepository {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping database tests")
	}

	db, err := Open(dsn)
	require.NoError(t, err)

	repo := NewClientRepository(db, zap.NewNop())
	require.NoError(t, repo.Migrate(context.Background()))

	t.Cleanup(func() {
		db.Exec("DELETE FROM clients")
	})

	return repo
}

func uniqueEmail() string {
	return fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8])
}

func TestClientLifecycle(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	t.Run("create assigns identifier and defaults", func(t *testing.T) {
		created, err := repo.Create(ctx, &entities.Client{
			FullName: "Ada Lovelace",
			Email:    uniqueEmail(),
		})

		require.NoError(t, err)
		assert.Greater(t, created.ClientID, 0)
		assert.Equal(t, entities.StatusActive, created.Status)
		assert.Equal(t, entities.AttributionCore, created.LastModifiedBy)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("get by id round trips", func(t *testing.T) {
		email := uniqueEmail()
		created, err := repo.Create(ctx, &entities.Client{FullName: "Grace Hopper", Email: email})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ClientID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Grace Hopper", got.FullName)
		assert.Equal(t, email, got.Email)
	})

	t.Run("absent identifier yields nil without error", func(t *testing.T) {
		got, err := repo.GetByID(ctx, 1<<30)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update overwrites the stored record", func(t *testing.T) {
		created, err := repo.Create(ctx, &entities.Client{FullName: "Before", Email: uniqueEmail()})
		require.NoError(t, err)

		created.FullName = "After"
		created.Status = "Inactive"
		require.NoError(t, repo.Update(ctx, created))

		got, err := repo.GetByID(ctx, created.ClientID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "After", got.FullName)
		assert.Equal(t, "Inactive", got.Status)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		created, err := repo.Create(ctx, &entities.Client{FullName: "Gone", Email: uniqueEmail()})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ClientID))
		require.NoError(t, repo.Delete(ctx, created.ClientID))

		exists, err := repo.Exists(ctx, created.ClientID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("identifiers are monotonic", func(t *testing.T) {
		first, err := repo.Create(ctx, &entities.Client{FullName: "One", Email: uniqueEmail()})
		require.NoError(t, err)
		second, err := repo.Create(ctx, &entities.Client{FullName: "Two", Email: uniqueEmail()})
		require.NoError(t, err)

		assert.Greater(t, second.ClientID, first.ClientID)
	})
}
