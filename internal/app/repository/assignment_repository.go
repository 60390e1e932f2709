package repository

import (
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentFilter narrows assignment listings. Zero fields are ignored.
type AssignmentFilter struct {
	ShopID    string
	ListingID string
	Origin    model.AssignmentOrigin
	Status    model.AssignmentStatus
}

type AssignmentRepository interface {
	WithTx(tx *gorm.DB) AssignmentRepository
	Create(assignment *model.PrivateStyleAssignment) error
	CreateBatch(assignments []*model.PrivateStyleAssignment) error
	FindByID(id string) (*model.PrivateStyleAssignment, error)
	FindByIDForUpdate(id string) (*model.PrivateStyleAssignment, error)
	Find(filter AssignmentFilter) ([]model.PrivateStyleAssignment, error)
	ExistsForListing(listingID, shopID string) (bool, error)
	ListingIDsByShop(shopID string) ([]string, error)
	Update(assignment *model.PrivateStyleAssignment) error
	CountActivePoolByShop() (map[string]int, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) WithTx(tx *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: tx}
}

func (r *assignmentRepository) Create(assignment *model.PrivateStyleAssignment) error {
	logger.Debug("Creating assignment in database", map[string]interface{}{
		"shop_id": assignment.ShopID,
		"origin":  assignment.Origin,
	})

	if err := r.db.Omit(clause.Associations).Create(assignment).Error; err != nil {
		logger.Error("Failed to create assignment in database", err, map[string]interface{}{
			"shop_id": assignment.ShopID,
			"origin":  assignment.Origin,
		})
		return err
	}

	logger.Debug("Assignment created in database", map[string]interface{}{
		"assignment_id": assignment.ID,
		"shop_id":       assignment.ShopID,
	})
	return nil
}

func (r *assignmentRepository) CreateBatch(assignments []*model.PrivateStyleAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	logger.Debug("Creating assignments in database", map[string]interface{}{
		"count": len(assignments),
	})

	if err := r.db.Omit(clause.Associations).Create(&assignments).Error; err != nil {
		logger.Error("Failed to create assignments in database", err, map[string]interface{}{
			"count": len(assignments),
		})
		return err
	}
	return nil
}

func (r *assignmentRepository) FindByID(id string) (*model.PrivateStyleAssignment, error) {
	var assignment model.PrivateStyleAssignment
	if err := r.db.Where("id = ?", id).First(&assignment).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find assignment by ID in database", err, map[string]interface{}{
				"assignment_id": id,
			})
		}
		return nil, err
	}
	return &assignment, nil
}

// FindByIDForUpdate loads the assignment under a row lock held until the transaction ends.
func (r *assignmentRepository) FindByIDForUpdate(id string) (*model.PrivateStyleAssignment, error) {
	var assignment model.PrivateStyleAssignment
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) Find(filter AssignmentFilter) ([]model.PrivateStyleAssignment, error) {
	query := r.db.Model(&model.PrivateStyleAssignment{})
	if filter.ShopID != "" {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.ListingID != "" {
		query = query.Where("listing_id = ?", filter.ListingID)
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", filter.Origin)
	}
	if filter.Status != "" {
		query = query.Where("assignment_status = ?", filter.Status)
	}

	var assignments []model.PrivateStyleAssignment
	if err := query.Order("created_at DESC").Order("id ASC").Find(&assignments).Error; err != nil {
		logger.Error("Failed to find assignments in database", err, map[string]interface{}{
			"shop_id": filter.ShopID,
			"status":  filter.Status,
		})
		return nil, err
	}

	logger.Debug("Assignments found in database", map[string]interface{}{
		"shop_id": filter.ShopID,
		"count":   len(assignments),
	})
	return assignments, nil
}

// ExistsForListing reports whether shopID already owns an assignment drawn from the listing.
func (r *assignmentRepository) ExistsForListing(listingID, shopID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.PrivateStyleAssignment{}).
		Where("listing_id = ? AND shop_id = ?", listingID, shopID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListingIDsByShop returns the listings shopID has drawn an assignment from.
func (r *assignmentRepository) ListingIDsByShop(shopID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.PrivateStyleAssignment{}).
		Where("shop_id = ? AND listing_id IS NOT NULL", shopID).
		Distinct().
		Pluck("listing_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find confirmed listings for shop", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return nil, err
	}
	return ids, nil
}

func (r *assignmentRepository) Update(assignment *model.PrivateStyleAssignment) error {
	logger.Debug("Updating assignment in database", map[string]interface{}{
		"assignment_id":      assignment.ID,
		"assignment_status":  assignment.AssignmentStatus,
		"development_status": assignment.DevelopmentStatus,
	})

	if err := r.db.Omit(clause.Associations).Save(assignment).Error; err != nil {
		logger.Error("Failed to update assignment in database", err, map[string]interface{}{
			"assignment_id": assignment.ID,
		})
		return err
	}
	return nil
}

type activePoolCount struct {
	ShopID string
	Total  int
}

// CountActivePoolByShop counts live pool-origin assignments for every shop that has one.
func (r *assignmentRepository) CountActivePoolByShop() (map[string]int, error) {
	var rows []activePoolCount
	err := r.db.Model(&model.PrivateStyleAssignment{}).
		Select("shop_id, COUNT(*) AS total").
		Where("origin = ?", model.OriginFromPool).
		Where("assignment_status NOT IN ?", []model.AssignmentStatus{model.AssignmentCompleted, model.AssignmentAbandoned}).
		Group("shop_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count active pool assignments", err)
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ShopID] = row.Total
	}
	return counts, nil
}
