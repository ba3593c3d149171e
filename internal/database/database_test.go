package database

import (
	"deedledger/server/internal/models"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	t.Cleanup(func() { db.Close() })
	return db
}

func testProperty(id string, owner models.Identity) *models.Property {
	return &models.Property{
		ID:          id,
		Title:       "Villa",
		Description: "A villa",
		Location:    "X",
		Price:       100,
		Owner:       owner,
		Documents:   []string{"deed-1", "survey-2"},
		IsActive:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestInsertAndGetProperty(t *testing.T) {
	db := newTestDatabase(t)

	p := testProperty("P1", "alice")
	require.NoError(t, db.InsertProperty(p))

	got, err := db.GetProperty("P1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Description, got.Description)
	assert.Equal(t, p.Location, got.Location)
	assert.Equal(t, p.Price, got.Price)
	assert.Equal(t, p.Owner, got.Owner)
	assert.Equal(t, []string{"deed-1", "survey-2"}, got.Documents)
	assert.True(t, got.IsActive)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestGetProperty_Missing(t *testing.T) {
	db := newTestDatabase(t)

	got, err := db.GetProperty("nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertProperty_DuplicateID(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertProperty(testProperty("P1", "alice")))
	err := db.InsertProperty(testProperty("P1", "bob"))
	assert.Error(t, err)

	// Original record is unchanged
	got, err := db.GetProperty("P1")
	require.NoError(t, err)
	assert.Equal(t, models.Identity("alice"), got.Owner)
}

func TestGetAllProperties_InsertionOrder(t *testing.T) {
	db := newTestDatabase(t)

	for _, id := range []string{"P3", "P1", "P2"} {
		require.NoError(t, db.InsertProperty(testProperty(id, "alice")))
	}

	properties, err := db.GetAllProperties()
	require.NoError(t, err)
	require.Len(t, properties, 3)
	assert.Equal(t, "P3", properties[0].ID)
	assert.Equal(t, "P1", properties[1].ID)
	assert.Equal(t, "P2", properties[2].ID)
}

func TestGetActiveProperties(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertProperty(testProperty("P1", "alice")))
	require.NoError(t, db.InsertProperty(testProperty("P2", "alice")))
	require.NoError(t, db.UpdateListing("P1", 100, false))

	active, err := db.GetActiveProperties()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "P2", active[0].ID)
}

func TestUpdateListing(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertProperty(testProperty("P1", "alice")))
	require.NoError(t, db.UpdateListing("P1", 250, false))

	got, err := db.GetProperty("P1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Price)
	assert.False(t, got.IsActive)
	// Everything else untouched
	assert.Equal(t, "Villa", got.Title)
	assert.Equal(t, models.Identity("alice"), got.Owner)
}

func TestUpdateListing_Missing(t *testing.T) {
	db := newTestDatabase(t)

	err := db.UpdateListing("nope", 100, true)
	assert.Error(t, err)
}

func TestExecutePurchase(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertProperty(testProperty("P1", "alice")))

	rec := &models.Settlement{
		ID:         "S1",
		PropertyID: "P1",
		Buyer:      "bob",
		Seller:     "alice",
		Value:      100,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, db.ExecutePurchase("P1", "bob", rec))

	got, err := db.GetProperty("P1")
	require.NoError(t, err)
	assert.Equal(t, models.Identity("bob"), got.Owner)
	assert.False(t, got.IsActive)

	stored, err := db.GetSettlement("S1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, *rec, *stored)
}

func TestExecutePurchase_DuplicateSettlementRollsBack(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertProperty(testProperty("P1", "alice")))
	require.NoError(t, db.InsertProperty(testProperty("P2", "alice")))

	rec := &models.Settlement{
		ID: "S1", PropertyID: "P1", Buyer: "bob", Seller: "alice", Value: 100,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, db.ExecutePurchase("P1", "bob", rec))

	// Reusing the settlement key must fail and must not flip ownership
	dup := &models.Settlement{
		ID: "S1", PropertyID: "P2", Buyer: "carol", Seller: "alice", Value: 100,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	err := db.ExecutePurchase("P2", "carol", dup)
	assert.Error(t, err)

	got, err := db.GetProperty("P2")
	require.NoError(t, err)
	assert.Equal(t, models.Identity("alice"), got.Owner)
	assert.True(t, got.IsActive)
}

func TestGetAllSettlements_InsertionOrder(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertProperty(testProperty("P1", "alice")))
	require.NoError(t, db.InsertProperty(testProperty("P2", "alice")))

	for i, pair := range [][2]string{{"S2", "P1"}, {"S1", "P2"}} {
		rec := &models.Settlement{
			ID: pair[0], PropertyID: pair[1], Buyer: "bob", Seller: "alice", Value: 100,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, db.ExecutePurchase(pair[1], models.Identity("bob"), rec), "purchase %d", i)
	}

	settlements, err := db.GetAllSettlements()
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, "S2", settlements[0].ID)
	assert.Equal(t, "S1", settlements[1].ID)
}

func TestGetSettlement_Missing(t *testing.T) {
	db := newTestDatabase(t)

	got, err := db.GetSettlement("nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
