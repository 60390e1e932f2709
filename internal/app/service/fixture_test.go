package service

import (
	"context"
	"testing"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type engineFixture struct {
	db        *gorm.DB
	repos     *repository.Repositories
	recorder  *events.Recorder
	alloc     AllocationService
	lifecycle LifecycleService
	catalog   CatalogService
	sweeps    SweepService
}

func setupEngineTest(t *testing.T, tweak ...func(cfg *config.AllocationConfig)) *engineFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cfg := config.DefaultAllocation()
	for _, fn := range tweak {
		fn(&cfg)
	}

	repos := repository.NewRepositories(testDB)
	recorder := &events.Recorder{}
	return &engineFixture{
		db:        testDB,
		repos:     repos,
		recorder:  recorder,
		alloc:     NewAllocationService(testDB, repos, recorder, cfg),
		lifecycle: NewLifecycleService(testDB, repos, recorder, cfg),
		catalog:   NewCatalogService(testDB, repos, cfg),
		sweeps:    NewSweepService(testDB, repos, recorder, cfg),
	}
}

func (f *engineFixture) addShop(t *testing.T, id string, intentCap int) *model.Shop {
	shop := &model.Shop{ID: id, Name: "공장 " + id, ActivePublicIntentCap: intentCap}
	require.NoError(t, f.db.Create(shop).Error)
	return shop
}

func (f *engineFixture) publish(t *testing.T, name string, maxIntents int) *model.PublicStyleListing {
	listing, err := f.alloc.PublishPublic(context.Background(), model.StyleMeta{Name: name}, &maxIntents)
	require.NoError(t, err)
	return listing
}

func (f *engineFixture) reloadListing(t *testing.T, id string) *model.PublicStyleListing {
	listing, err := f.repos.Listings.FindByID(id)
	require.NoError(t, err)
	return listing
}

func (f *engineFixture) reloadAssignment(t *testing.T, id string) *model.PrivateStyleAssignment {
	assignment, err := f.repos.Assignments.FindByID(id)
	require.NoError(t, err)
	return assignment
}

func (f *engineFixture) quota(t *testing.T, shopID string) int {
	count, err := f.repos.Quotas.Get(shopID)
	require.NoError(t, err)
	return count
}

// assertInvariants checks the listing counters against the intent rows and
// every ledger row against the assignments it summarizes.
func (f *engineFixture) assertInvariants(t *testing.T) {
	t.Helper()

	listings, err := f.repos.Listings.FindByStatus()
	require.NoError(t, err)
	for _, l := range listings {
		assert.Equal(t, len(l.Intents), l.IntentCount, "intent count of listing %s", l.ID)
		assert.LessOrEqual(t, l.IntentCount, l.MaxIntents, "capacity of listing %s", l.ID)
	}

	shops, err := f.repos.Shops.FindAll()
	require.NoError(t, err)
	for _, shop := range shops {
		actual, err := f.repos.Quotas.Recompute(shop.ID)
		require.NoError(t, err)
		assert.Equal(t, actual, f.quota(t, shop.ID), "quota of shop %s", shop.ID)
	}
}

func shopActor(id string) model.Actor {
	return model.Actor{Subject: "user-" + id, Role: model.RoleShop, ShopID: id}
}

func buyerActor() model.Actor {
	return model.Actor{Subject: "buyer-1", Role: model.RoleBuyer}
}
