package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// engine holds what every state-changing service needs: the connection to
// open transactions on, the repositories, the event sink and the settings.
type engine struct {
	db        *gorm.DB
	repos     *repository.Repositories
	publisher events.Publisher
	cfg       config.AllocationConfig
	now       func() time.Time
}

func newEngine(conn *gorm.DB, repos *repository.Repositories, publisher events.Publisher, cfg config.AllocationConfig) engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return engine{
		db:        conn,
		repos:     repos,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// inTx runs fn in a retried transaction. fn appends events to the outbox it
// receives; they are stored with the change and published once it commits.
func (e *engine) inTx(ctx context.Context, fn func(repos *repository.Repositories, out *outbox) error) error {
	var committed []*model.StyleEvent
	err := db.RunInTxWithRetry(ctx, e.db, e.cfg.TxMaxAttempts, func(tx *gorm.DB) error {
		out := &outbox{}
		repos := e.repos.WithTx(tx)
		if err := fn(repos, out); err != nil {
			return err
		}
		if err := repos.Events.Create(out.events); err != nil {
			return err
		}
		committed = out.events
		return nil
	})
	if err != nil {
		return err
	}

	for _, event := range committed {
		if err := e.publisher.Publish(ctx, *event); err != nil {
			logger.Warn("Failed to publish style event", map[string]interface{}{
				"event_id": event.ID,
				"type":     event.Type,
				"error":    err.Error(),
			})
		}
	}
	return nil
}

// shopFor resolves a shop from the registry, mapping a miss to ErrInvalidTarget.
func (e *engine) shopFor(repos *repository.Repositories, shopID string) (*model.Shop, error) {
	if shopID == "" {
		return nil, ErrInvalidTarget
	}
	shop, err := repos.Shops.FindByID(shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidTarget
		}
		return nil, err
	}
	return shop, nil
}

// lockAssignment loads an assignment for update and hides assignments the actor does not own.
func (e *engine) lockAssignment(repos *repository.Repositories, actor model.Actor, id string) (*model.PrivateStyleAssignment, error) {
	assignment, err := repos.Assignments.FindByIDForUpdate(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if !actor.CanActFor(assignment.ShopID) {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

type outbox struct {
	events []*model.StyleEvent
}

func (o *outbox) add(eventType model.EventType, aggregateID, shopID string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	o.events = append(o.events, &model.StyleEvent{
		Type:        eventType,
		AggregateID: aggregateID,
		ShopID:      shopID,
		Payload:     datatypes.JSON(data),
	})
}

// IsDomainError reports whether err is one of the classified caller errors.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidTarget, ErrInvalidCapacity, ErrListingNotFound, ErrDuplicateInterest,
		ErrCapacityExceeded, ErrShopQuotaExceeded, ErrNotPending, ErrInvalidTransition,
		ErrMissingSpu, ErrAssignmentNotFound, ErrAlreadyConfirmed, ErrInvalidReason,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
