package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habita-engine/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "habita.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Migrate(db))

	var v int
	require.NoError(t, db.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestFavoritesRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	price := int64(350000000)
	area := 70.0
	score := 8.5
	l := domain.Listing{
		Source:         "metrocuadrado",
		Title:          "Apto Chapinero",
		Neighborhood:   "Chapinero",
		City:           "bogota",
		Price:          &price,
		PriceFormatted: "$350,000,000",
		Area:           &area,
		Bedrooms:       float64(3),
		Stratum:        "4",
		URL:            "https://www.metrocuadrado.com/inmueble/1",
		AIScore:        &score,
		AISummary:      "Buena relación precio/zona",
		InTopN:         true,
		TopNReason:     "mejor precio por m2",
	}

	id, err := InsertFavorite(ctx, db, l)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	favs, err := ListFavorites(ctx, db)
	require.NoError(t, err)
	require.Len(t, favs, 1)

	f := favs[0]
	assert.Equal(t, id, f.ID)
	assert.Equal(t, "Apto Chapinero", f.Title)
	require.NotNil(t, f.Price)
	assert.Equal(t, price, *f.Price)
	assert.Equal(t, "3", f.Bedrooms)
	assert.Equal(t, "4", f.Stratum)
	require.NotNil(t, f.AIScore)
	assert.Equal(t, score, *f.AIScore)
	assert.True(t, f.InTopN)
	assert.NotEmpty(t, f.SavedAt)
}

func TestDeleteFavorite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := InsertFavorite(ctx, db, domain.Listing{Title: "x", URL: "https://e/x"})
	require.NoError(t, err)

	require.NoError(t, DeleteFavorite(ctx, db, id))

	err = DeleteFavorite(ctx, db, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAlertsLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := InsertAlert(ctx, db, "ana@example.com", "Chapinero 3 alcobas", `{"city":"bogota"}`)
	require.NoError(t, err)

	all, err := ListAlerts(ctx, db)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ana@example.com", all[0].Email)
	assert.True(t, all[0].Active)
	assert.Empty(t, all[0].LastRunAt)

	active, err := ListActiveAlerts(ctx, db)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, TouchAlertRun(ctx, db, id, at))

	all, err = ListAlerts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30T12:00:00Z", all[0].LastRunAt)

	require.NoError(t, DeleteAlert(ctx, db, id))
	err = DeleteAlert(ctx, db, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListFavoritesNewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// same-second inserts; fall back to checking both are present
	_, err := InsertFavorite(ctx, db, domain.Listing{Title: "primero", URL: "https://e/1"})
	require.NoError(t, err)
	_, err = InsertFavorite(ctx, db, domain.Listing{Title: "segundo", URL: "https://e/2"})
	require.NoError(t, err)

	favs, err := ListFavorites(ctx, db)
	require.NoError(t, err)
	assert.Len(t, favs, 2)
}
