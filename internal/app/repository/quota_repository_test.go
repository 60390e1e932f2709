package repository

import (
	"testing"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupQuotaTest(t *testing.T) (*gorm.DB, QuotaRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	require.NoError(t, testDB.Create(&model.Shop{ID: "shop-1", Name: "Test Shop"}).Error)
	return testDB, NewQuotaRepository(testDB)
}

func TestQuotaRepository_IncrementStopsAtLimit(t *testing.T) {
	_, repo := setupQuotaTest(t)

	count, err := repo.Get("shop-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "missing ledger row reads as zero")

	for i := 0; i < 2; i++ {
		ok, err := repo.Increment("shop-1", 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.Increment("shop-1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err = repo.Get("shop-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQuotaRepository_DecrementFloorsAtZero(t *testing.T) {
	_, repo := setupQuotaTest(t)

	_, err := repo.Increment("shop-1", 5)
	require.NoError(t, err)

	require.NoError(t, repo.Decrement("shop-1"))
	require.NoError(t, repo.Decrement("shop-1"))

	count, err := repo.Get("shop-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQuotaRepository_SetAndRecompute(t *testing.T) {
	testDB, repo := setupQuotaTest(t)

	listingID := "listing-1"
	rows := []*model.PrivateStyleAssignment{
		{StyleMeta: model.StyleMeta{Name: "a"}, ShopID: "shop-1", Origin: model.OriginFromPool, ListingID: &listingID, AssignmentStatus: model.AssignmentDeveloping},
		{StyleMeta: model.StyleMeta{Name: "b"}, ShopID: "shop-1", Origin: model.OriginFromPool, ListingID: &listingID, AssignmentStatus: model.AssignmentAbandoned},
		{StyleMeta: model.StyleMeta{Name: "c"}, ShopID: "shop-1", Origin: model.OriginDirectPush, AssignmentStatus: model.AssignmentDeveloping},
	}
	require.NoError(t, NewAssignmentRepository(testDB).CreateBatch(rows))

	actual, err := repo.Recompute("shop-1")
	require.NoError(t, err)
	assert.Equal(t, 1, actual)

	require.NoError(t, repo.Set("shop-1", 4))
	entries, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 4, entries[0].ActiveCount)
}
