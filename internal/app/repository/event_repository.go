package repository

import (
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
)

const maxEventPage = 500

// EventRepository is the style event outbox.
type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository
	Create(events []*model.StyleEvent) error
	ListSince(afterID uint, shopID string, limit int) ([]model.StyleEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &eventRepository{db: tx}
}

func (r *eventRepository) Create(events []*model.StyleEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.Create(&events).Error; err != nil {
		logger.Error("Failed to write style events", err, map[string]interface{}{
			"count": len(events),
		})
		return err
	}
	return nil
}

// ListSince returns events with an id above afterID in id order. A non-empty
// shopID restricts the page to that shop's events plus broadcast events.
func (r *eventRepository) ListSince(afterID uint, shopID string, limit int) ([]model.StyleEvent, error) {
	if limit <= 0 || limit > maxEventPage {
		limit = maxEventPage
	}

	query := r.db.Where("id > ?", afterID)
	if shopID != "" {
		query = query.Where("shop_id = ? OR shop_id = ''", shopID)
	}

	var events []model.StyleEvent
	if err := query.Order("id ASC").Limit(limit).Find(&events).Error; err != nil {
		logger.Error("Failed to list style events", err, map[string]interface{}{
			"after_id": afterID,
			"shop_id":  shopID,
		})
		return nil, err
	}
	return events, nil
}
