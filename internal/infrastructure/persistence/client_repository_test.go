package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockClientRepository creates a GormClientRepository with a mocked SQL connection
func newMockClientRepository(t *testing.T) (*GormClientRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormClientRepository(gormDB), mock, mockDB
}

func TestGormClientRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds client within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "code", "name", "status", "balance"}).
			AddRow(clientID, tenantID, "CUST-001", "Acme Retail", "ACTIVE", decimal.NewFromInt(1000))

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, clientID, 1).
			WillReturnRows(rows)

		client, err := repo.FindByIDForTenant(context.Background(), tenantID, clientID)

		assert.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, clientID, client.ID)
		assert.Equal(t, "CUST-001", client.Code)
		assert.True(t, client.Balance.Equal(decimal.NewFromInt(1000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing client", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, clientID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		client, err := repo.FindByIDForTenant(context.Background(), tenantID, clientID)

		assert.Nil(t, client)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_IncrementBalance(t *testing.T) {
	t.Run("returns balance before and after the increment", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()
		delta := decimal.NewFromInt(500)

		rows := sqlmock.NewRows([]string{"balance"}).AddRow(decimal.NewFromInt(1500))

		mock.ExpectQuery(`UPDATE clients\s+SET balance = balance \+ \$1, updated_at = CURRENT_TIMESTAMP, version = version \+ 1\s+WHERE tenant_id = \$2 AND id = \$3\s+RETURNING balance`).
			WithArgs(delta, tenantID, clientID).
			WillReturnRows(rows)

		before, after, err := repo.IncrementBalance(context.Background(), tenantID, clientID, delta)

		assert.NoError(t, err)
		assert.True(t, before.Equal(decimal.NewFromInt(1000)))
		assert.True(t, after.Equal(decimal.NewFromInt(1500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative delta decreases the balance", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()
		delta := decimal.NewFromInt(-300)

		rows := sqlmock.NewRows([]string{"balance"}).AddRow(decimal.NewFromInt(-300))

		mock.ExpectQuery(`UPDATE clients\s+SET balance = balance \+ \$1, updated_at = CURRENT_TIMESTAMP, version = version \+ 1\s+WHERE tenant_id = \$2 AND id = \$3\s+RETURNING balance`).
			WithArgs(delta, tenantID, clientID).
			WillReturnRows(rows)

		before, after, err := repo.IncrementBalance(context.Background(), tenantID, clientID, delta)

		assert.NoError(t, err)
		assert.True(t, before.IsZero())
		assert.True(t, after.Equal(decimal.NewFromInt(-300)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()
		delta := decimal.NewFromInt(100)

		mock.ExpectQuery(`UPDATE clients\s+SET balance = balance \+ \$1, updated_at = CURRENT_TIMESTAMP, version = version \+ 1\s+WHERE tenant_id = \$2 AND id = \$3\s+RETURNING balance`).
			WithArgs(delta, tenantID, clientID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))

		_, _, err := repo.IncrementBalance(context.Background(), tenantID, clientID, delta)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
