package repository

import (
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShopRepository reads the externally supplied shop registry.
type ShopRepository interface {
	WithTx(tx *gorm.DB) ShopRepository
	FindByID(id string) (*model.Shop, error)
	FindByIDs(ids []string) ([]model.Shop, error)
	FindAll() ([]model.Shop, error)
	Upsert(shops []model.Shop) (int64, error)
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) WithTx(tx *gorm.DB) ShopRepository {
	return &shopRepository{db: tx}
}

func (r *shopRepository) FindByID(id string) (*model.Shop, error) {
	logger.Debug("Finding shop by ID in database", map[string]interface{}{
		"shop_id": id,
	})

	var shop model.Shop
	if err := r.db.Where("id = ?", id).First(&shop).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find shop by ID in database", err, map[string]interface{}{
				"shop_id": id,
			})
		}
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) FindByIDs(ids []string) ([]model.Shop, error) {
	logger.Debug("Finding shops by IDs in database", map[string]interface{}{
		"count": len(ids),
	})

	var shops []model.Shop
	if len(ids) == 0 {
		return shops, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&shops).Error; err != nil {
		logger.Error("Failed to find shops by IDs in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return shops, nil
}

func (r *shopRepository) FindAll() ([]model.Shop, error) {
	var shops []model.Shop
	if err := r.db.Order("id ASC").Find(&shops).Error; err != nil {
		logger.Error("Failed to list shops in database", err)
		return nil, err
	}

	logger.Debug("Shops listed from database", map[string]interface{}{
		"count": len(shops),
	})
	return shops, nil
}

// Upsert imports registry rows, refreshing name, grouping key and cap of known shops.
func (r *shopRepository) Upsert(shops []model.Shop) (int64, error) {
	if len(shops) == 0 {
		return 0, nil
	}

	logger.Debug("Upserting shops in database", map[string]interface{}{
		"count": len(shops),
	})

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "key_id", "active_public_intent_cap", "updated_at"}),
	}).CreateInBatches(&shops, 100)
	if result.Error != nil {
		logger.Error("Failed to upsert shops in database", result.Error, map[string]interface{}{
			"count": len(shops),
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
