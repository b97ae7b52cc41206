package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/infrastructure/fixtures"
	"github.com/garyjia/fintel-ai/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/fintel-ai/pkg/database"
)

func setupDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	raw, err := database.New(database.Config{Path: database.MemoryPath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	_, err = database.NewMigrator(raw, logger).Run(database.Migrations())
	require.NoError(t, err)

	db := sqlite.NewDB(raw.DB, logger)
	set, err := fixtures.Load()
	require.NoError(t, err)

	seeded, err := NewSeeder(db, logger).Seed(context.Background(), set)
	require.NoError(t, err)
	require.True(t, seeded)
	return db
}

func TestSeeder_SecondRunSkips(t *testing.T) {
	db := setupDB(t)
	set, err := fixtures.Load()
	require.NoError(t, err)

	seeded, err := NewSeeder(db, zap.NewNop()).Seed(context.Background(), set)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestInvoiceRepository_Search(t *testing.T) {
	repo := NewInvoiceRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name   string
		filter entity.InvoiceFilter
		want   []string
	}{
		{"all", entity.InvoiceFilter{}, []string{"INV-23109", "INV-23110", "INV-23111", "INV-23112"}},
		{"status all", entity.InvoiceFilter{Status: "all"}, []string{"INV-23109", "INV-23110", "INV-23111", "INV-23112"}},
		{"vendor case-insensitive", entity.InvoiceFilter{Query: "technova"}, []string{"INV-23110"}},
		{"invoice number", entity.InvoiceFilter{Query: "23111"}, []string{"INV-23111"}},
		{"status", entity.InvoiceFilter{Status: entity.InvoiceStatusWarning}, []string{"INV-23109", "INV-23112"}},
		{"query and status", entity.InvoiceFilter{Query: "metro", Status: entity.InvoiceStatusWarning}, []string{"INV-23112"}},
		{"wildcards are literal", entity.InvoiceFilter{Query: "%"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.filter)
			require.NoError(t, err)
			numbers := []string{}
			for _, inv := range got {
				numbers = append(numbers, inv.InvoiceNo)
			}
			assert.Equal(t, tt.want, numbers)
		})
	}
}

func TestInvoiceRepository_GetByNumber(t *testing.T) {
	repo := NewInvoiceRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	inv, err := repo.GetByNumber(ctx, "INV-23110")
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid GST", "Price Outlier"}, inv.Flags)
	assert.Equal(t, entity.InvoiceStatusError, inv.Status)
	assert.InDelta(t, 0.72, inv.RiskScore, 1e-9)

	inv, err = repo.GetByNumber(ctx, "INV-23111")
	require.NoError(t, err)
	assert.Equal(t, []string{}, inv.Flags)

	_, err = repo.GetByNumber(ctx, "INV-00000")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestAnomalyRepository(t *testing.T) {
	repo := NewAnomalyRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	gst, err := repo.List(ctx, entity.CategoryGST)
	require.NoError(t, err)
	require.Len(t, gst, 1)
	assert.Equal(t, "INV-23110", gst[0].InvoiceNo)
	assert.Equal(t, entity.SeverityHigh, gst[0].Severity)

	counts, err := repo.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 5)
	for _, c := range entity.AnomalyCategories {
		assert.Equal(t, 1, counts[c], string(c))
	}
}

func TestVendorAndReportRepositories(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	vendors, err := NewVendorRepository(db, zap.NewNop()).List(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 5)
	assert.Equal(t, "TechNova Pvt Ltd", vendors[0].Name)
	assert.Equal(t, entity.TrendUp, vendors[0].Trend)

	reports := NewReportRepository(db, zap.NewNop())
	list, err := reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, entity.ReportStatusGenerating, list[3].Status)

	rep, err := reports.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, entity.ReportTypeAudit, rep.Type)

	_, err = reports.GetByID(ctx, "99")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestHSNRepository_Upsert(t *testing.T) {
	repo := NewHSNRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	added, err := repo.Upsert(ctx, []entity.HSNMapping{
		{Code: "998313", Description: "Software Development", Rate: 12, UpdatedOn: "01-Nov-2025"},
		{Code: "8471", Description: "Computers", Rate: 18, UpdatedOn: "01-Nov-2025"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "998313", list[1].Code)
	assert.Equal(t, 12, list[1].Rate)
	assert.Equal(t, "8471", list[3].Code)

	_, err = repo.Upsert(ctx, []entity.HSNMapping{{Code: "12", Rate: 18}})
	assert.True(t, entity.IsValidationError(err))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}
