package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fastygo/energy-backoffice/domain"
	pgInfra "github.com/fastygo/energy-backoffice/internal/infrastructure/postgres"
	"github.com/fastygo/energy-backoffice/repository"
)

func startDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test needs docker")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("energy"),
		tcpostgres.WithUsername("energy"),
		tcpostgres.WithPassword("energy"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, pgInfra.RunMigrations(dsn, "../../assets/migrations", nil))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	pool := startDatabase(t)
	ctx := context.Background()

	orgs := NewOrganizationRepository(pool)
	require.NoError(t, orgs.Create(ctx, &domain.Organization{Name: "acme", City: "Lyon"}))

	t.Run("duplicate organization is a conflict", func(t *testing.T) {
		err := orgs.Create(ctx, &domain.Organization{Name: "acme"})
		assert.Equal(t, domain.ErrCodeConflict, domain.CodeOf(err))
	})

	t.Run("period upsert keeps the natural key id", func(t *testing.T) {
		periods := NewPeriodRepository(pool)
		first := &domain.CollectionPeriod{
			OrganizationName: "acme",
			Year:             2024,
			PeriodType:       domain.PeriodQuarter,
			PeriodNumber:     1,
			StartDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:          time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, periods.Upsert(ctx, first))

		again := *first
		again.ID = ""
		again.Status = domain.PeriodStatusClosed
		require.NoError(t, periods.Upsert(ctx, &again))
		assert.Equal(t, first.ID, again.ID)

		got, err := periods.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodStatusClosed, got.Status)

		open := &domain.CollectionPeriod{
			OrganizationName: "acme",
			Year:             2024,
			PeriodType:       domain.PeriodQuarter,
			PeriodNumber:     2,
			StartDate:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:          time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, periods.Upsert(ctx, open))
		closed, err := periods.CloseEnded(ctx, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.EqualValues(t, 1, closed)

		_, err = periods.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrPeriodNotFound)
		assert.ErrorIs(t, periods.Delete(ctx, "not-a-uuid"), domain.ErrPeriodNotFound)
	})

	t.Run("link indicator appends once", func(t *testing.T) {
		taxonomy := NewTaxonomyRepository(pool)
		key := domain.JoinKey{
			SectorName: "industry", EnergyTypeName: "electricity", StandardName: "ISO 50001",
			IssueName: "efficiency", CriteriaName: "consumption",
		}
		require.NoError(t, taxonomy.LinkIndicator(ctx, key, "IND-1", "kWh"))
		require.NoError(t, taxonomy.LinkIndicator(ctx, key, "IND-1", ""))
		require.NoError(t, taxonomy.LinkIndicator(ctx, key, "IND-2", ""))

		rows, err := taxonomy.FindJoinRows(ctx, "industry", "electricity", "ISO 50001")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"IND-1", "IND-2"}, rows[0].IndicatorCodes)
		require.NotNil(t, rows[0].Unit)
		assert.Equal(t, "kWh", *rows[0].Unit)
	})

	t.Run("journal insert is idempotent on id", func(t *testing.T) {
		logs := NewLogRepository(pool)
		entry := domain.LogEntry{
			ID:               uuid.NewString(),
			OrganizationName: "acme",
			ActorEmail:       "ada@acme.fr",
			Entity:           "organization",
			Action:           domain.ActionUpdate,
			EntityKey:        "acme",
			Payload:          json.RawMessage(`{"city":"Lyon"}`),
			CreatedAt:        time.Now().UTC(),
		}
		require.NoError(t, logs.InsertBatch(ctx, []domain.LogEntry{entry}))
		require.NoError(t, logs.InsertBatch(ctx, []domain.LogEntry{entry}))

		list, err := logs.List(ctx, repository.LogFilter{OrganizationName: "acme", Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, entry.ID, list[0].ID)
	})
}
