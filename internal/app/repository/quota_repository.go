package repository

import (
	"time"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository is the quota ledger: one counter row per shop holding the
// number of live pool-origin assignments.
type QuotaRepository interface {
	WithTx(tx *gorm.DB) QuotaRepository
	Get(shopID string) (int, error)
	Increment(shopID string, limit int) (bool, error)
	Decrement(shopID string) error
	Set(shopID string, count int) error
	FindAll() ([]model.ShopQuota, error)
	Recompute(shopID string) (int, error)
}

type quotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

func (r *quotaRepository) WithTx(tx *gorm.DB) QuotaRepository {
	return &quotaRepository{db: tx}
}

func (r *quotaRepository) ensure(shopID string) error {
	entry := model.ShopQuota{ShopID: shopID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// Get returns the active count, zero for a shop without a ledger row.
func (r *quotaRepository) Get(shopID string) (int, error) {
	var entry model.ShopQuota
	err := r.db.Where("shop_id = ?", shopID).Limit(1).Find(&entry).Error
	if err != nil {
		logger.Error("Failed to read quota ledger", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return 0, err
	}
	return entry.ActiveCount, nil
}

// Increment adds one to the shop's counter unless it already reached limit.
// The check and the write are a single conditional update.
func (r *quotaRepository) Increment(shopID string, limit int) (bool, error) {
	if err := r.ensure(shopID); err != nil {
		logger.Error("Failed to create quota ledger row", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return false, err
	}

	result := r.db.Model(&model.ShopQuota{}).
		Where("shop_id = ? AND active_count < ?", shopID, limit).
		Updates(map[string]interface{}{
			"active_count": gorm.Expr("active_count + 1"),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to increment quota ledger", result.Error, map[string]interface{}{
			"shop_id": shopID,
		})
		return false, result.Error
	}

	logger.Debug("Quota ledger increment", map[string]interface{}{
		"shop_id": shopID,
		"limit":   limit,
		"applied": result.RowsAffected == 1,
	})
	return result.RowsAffected == 1, nil
}

// Decrement subtracts one, never going below zero.
func (r *quotaRepository) Decrement(shopID string) error {
	result := r.db.Model(&model.ShopQuota{}).
		Where("shop_id = ? AND active_count > 0", shopID).
		Updates(map[string]interface{}{
			"active_count": gorm.Expr("active_count - 1"),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to decrement quota ledger", result.Error, map[string]interface{}{
			"shop_id": shopID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Quota ledger already at zero", map[string]interface{}{
			"shop_id": shopID,
		})
	}
	return nil
}

func (r *quotaRepository) Set(shopID string, count int) error {
	if err := r.ensure(shopID); err != nil {
		return err
	}
	return r.db.Model(&model.ShopQuota{}).
		Where("shop_id = ?", shopID).
		Updates(map[string]interface{}{
			"active_count": count,
			"updated_at":   time.Now(),
		}).Error
}

func (r *quotaRepository) FindAll() ([]model.ShopQuota, error) {
	var entries []model.ShopQuota
	if err := r.db.Order("shop_id ASC").Find(&entries).Error; err != nil {
		logger.Error("Failed to list quota ledger", err)
		return nil, err
	}
	return entries, nil
}

// Recompute counts the shop's live pool-origin assignments from the assignment table.
func (r *quotaRepository) Recompute(shopID string) (int, error) {
	var count int64
	err := r.db.Model(&model.PrivateStyleAssignment{}).
		Where("shop_id = ? AND origin = ?", shopID, model.OriginFromPool).
		Where("assignment_status NOT IN ?", []model.AssignmentStatus{model.AssignmentCompleted, model.AssignmentAbandoned}).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to recompute quota from assignments", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return 0, err
	}
	return int(count), nil
}
