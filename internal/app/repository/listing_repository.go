package repository

import (
	"time"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListingRepository stores public listings and the intent relation behind their counters.
type ListingRepository interface {
	WithTx(tx *gorm.DB) ListingRepository
	Create(listing *model.PublicStyleListing) error
	FindByID(id string) (*model.PublicStyleListing, error)
	FindByIDForUpdate(id string) (*model.PublicStyleListing, error)
	FindByStatus(statuses ...model.ListingStatus) ([]model.PublicStyleListing, error)
	FindFull() ([]model.PublicStyleListing, error)
	HasIntent(listingID, shopID string) (bool, error)
	AddIntent(listingID, shopID string) (bool, error)
	UpdateStatus(id string, status model.ListingStatus) error
	GrowCapacity(id string) (bool, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) WithTx(tx *gorm.DB) ListingRepository {
	return &listingRepository{db: tx}
}

func (r *listingRepository) preloadIntents(db *gorm.DB) *gorm.DB {
	return db.Preload("Intents", func(idb *gorm.DB) *gorm.DB {
		return idb.Order("id ASC")
	})
}

func (r *listingRepository) Create(listing *model.PublicStyleListing) error {
	logger.Debug("Creating listing in database", map[string]interface{}{
		"name":        listing.Name,
		"max_intents": listing.MaxIntents,
	})

	if err := r.db.Create(listing).Error; err != nil {
		logger.Error("Failed to create listing in database", err, map[string]interface{}{
			"name": listing.Name,
		})
		return err
	}

	logger.Debug("Listing created in database", map[string]interface{}{
		"listing_id": listing.ID,
	})
	return nil
}

func (r *listingRepository) FindByID(id string) (*model.PublicStyleListing, error) {
	var listing model.PublicStyleListing
	if err := r.preloadIntents(r.db).Where("id = ?", id).First(&listing).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find listing by ID in database", err, map[string]interface{}{
				"listing_id": id,
			})
		}
		return nil, err
	}
	return &listing, nil
}

// FindByIDForUpdate loads the listing under a row lock held until the transaction ends.
func (r *listingRepository) FindByIDForUpdate(id string) (*model.PublicStyleListing, error) {
	logger.Debug("Locking listing row", map[string]interface{}{
		"listing_id": id,
	})

	var listing model.PublicStyleListing
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&listing).Error; err != nil {
		return nil, err
	}

	var intents []model.ListingIntent
	if err := r.db.Where("listing_id = ?", id).Order("id ASC").Find(&intents).Error; err != nil {
		return nil, err
	}
	listing.Intents = intents
	return &listing, nil
}

// FindByStatus returns listings in creation order. No status means every listing.
func (r *listingRepository) FindByStatus(statuses ...model.ListingStatus) ([]model.PublicStyleListing, error) {
	query := r.preloadIntents(r.db).Order("created_at ASC").Order("id ASC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var listings []model.PublicStyleListing
	if err := query.Find(&listings).Error; err != nil {
		logger.Error("Failed to list listings in database", err, map[string]interface{}{
			"statuses": statuses,
		})
		return nil, err
	}

	logger.Debug("Listings found in database", map[string]interface{}{
		"count": len(listings),
	})
	return listings, nil
}

// FindFull returns open listings whose every slot is taken.
func (r *listingRepository) FindFull() ([]model.PublicStyleListing, error) {
	var listings []model.PublicStyleListing
	err := r.preloadIntents(r.db).
		Where("status = ? AND intent_count >= max_intents", model.ListingOpen).
		Order("created_at ASC").
		Find(&listings).Error
	if err != nil {
		logger.Error("Failed to find full listings in database", err)
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) HasIntent(listingID, shopID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.ListingIntent{}).
		Where("listing_id = ? AND shop_id = ?", listingID, shopID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddIntent takes one slot for shopID. The counter moves only while it is
// below max_intents, so it returns false instead of overfilling the listing.
func (r *listingRepository) AddIntent(listingID, shopID string) (bool, error) {
	logger.Debug("Adding listing intent", map[string]interface{}{
		"listing_id": listingID,
		"shop_id":    shopID,
	})

	result := r.db.Model(&model.PublicStyleListing{}).
		Where("id = ? AND intent_count < max_intents", listingID).
		Updates(map[string]interface{}{
			"intent_count": gorm.Expr("intent_count + 1"),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to increment listing intent count", result.Error, map[string]interface{}{
			"listing_id": listingID,
		})
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	intent := model.ListingIntent{ListingID: listingID, ShopID: shopID}
	if err := r.db.Create(&intent).Error; err != nil {
		logger.Error("Failed to create listing intent", err, map[string]interface{}{
			"listing_id": listingID,
			"shop_id":    shopID,
		})
		return false, err
	}
	return true, nil
}

func (r *listingRepository) UpdateStatus(id string, status model.ListingStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == model.ListingOpen {
		updates["closed_at"] = nil
	} else {
		updates["closed_at"] = time.Now()
	}

	if err := r.db.Model(&model.PublicStyleListing{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		logger.Error("Failed to update listing status", err, map[string]interface{}{
			"listing_id": id,
			"status":     status,
		})
		return err
	}
	return nil
}

// GrowCapacity frees one more slot on the listing and reopens it if it was closed.
// Withdrawn listings are left alone and reported as not grown.
func (r *listingRepository) GrowCapacity(id string) (bool, error) {
	result := r.db.Model(&model.PublicStyleListing{}).
		Where("id = ? AND status <> ?", id, model.ListingWithdrawn).
		Updates(map[string]interface{}{
			"max_intents": gorm.Expr("max_intents + 1"),
			"status":      model.ListingOpen,
			"closed_at":   nil,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to grow listing capacity", result.Error, map[string]interface{}{
			"listing_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
