package repository

import (
	"testing"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupListingTest(t *testing.T, maxIntents int) (*gorm.DB, ListingRepository, *model.PublicStyleListing) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	repo := NewListingRepository(testDB)
	listing := &model.PublicStyleListing{
		StyleMeta:  model.StyleMeta{Name: "Test Listing"},
		MaxIntents: maxIntents,
	}
	require.NoError(t, repo.Create(listing))
	return testDB, repo, listing
}

func TestListingRepository_Create(t *testing.T) {
	_, repo, listing := setupListingTest(t, 2)

	assert.NotEmpty(t, listing.ID)
	found, err := repo.FindByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListingOpen, found.Status)
	assert.Equal(t, 0, found.IntentCount)

	_, err = repo.FindByID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListingRepository_AddIntent(t *testing.T) {
	_, repo, listing := setupListingTest(t, 2)

	for _, shopID := range []string{"shop-a", "shop-b"} {
		ok, err := repo.AddIntent(listing.ID, shopID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.AddIntent(listing.ID, "shop-c")
	require.NoError(t, err)
	assert.False(t, ok, "a full listing takes no more intents")

	found, err := repo.FindByIDForUpdate(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.IntentCount)
	assert.Equal(t, []string{"shop-a", "shop-b"}, found.IntentShopIDs())

	has, err := repo.HasIntent(listing.ID, "shop-c")
	require.NoError(t, err)
	assert.False(t, has)

	full, err := repo.FindFull()
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.Equal(t, listing.ID, full[0].ID)
}

func TestListingRepository_StatusAndCapacity(t *testing.T) {
	_, repo, listing := setupListingTest(t, 1)

	require.NoError(t, repo.UpdateStatus(listing.ID, model.ListingClosed))
	closed, err := repo.FindByStatus(model.ListingClosed)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.NotNil(t, closed[0].ClosedAt)

	grown, err := repo.GrowCapacity(listing.ID)
	require.NoError(t, err)
	assert.True(t, grown)

	found, err := repo.FindByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.MaxIntents)
	assert.Equal(t, model.ListingOpen, found.Status)
	assert.Nil(t, found.ClosedAt)

	require.NoError(t, repo.UpdateStatus(listing.ID, model.ListingWithdrawn))
	grown, err = repo.GrowCapacity(listing.ID)
	require.NoError(t, err)
	assert.False(t, grown)

	all, err := repo.FindByStatus()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.ListingWithdrawn, all[0].Status)
	assert.Equal(t, 2, all[0].MaxIntents)
}
