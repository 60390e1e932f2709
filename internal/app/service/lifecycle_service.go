package service

import (
	"context"
	"strings"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
)

// LifecycleService drives an accepted assignment through its development stages.
type LifecycleService interface {
	Advance(ctx context.Context, actor model.Actor, assignmentID string, next model.DevelopmentStatus) (*model.PrivateStyleAssignment, error)
	AttachSpu(ctx context.Context, actor model.Actor, assignmentID string, codes []string) (*model.PrivateStyleAssignment, error)
}

type lifecycleService struct {
	engine
}

func NewLifecycleService(
	db *gorm.DB,
	repos *repository.Repositories,
	publisher events.Publisher,
	cfg config.AllocationConfig,
) LifecycleService {
	return &lifecycleService{engine: newEngine(db, repos, publisher, cfg)}
}

// Advance moves the development status forward. Reaching success completes
// the assignment and releases the pool quota it held. Abandonment has its
// own operation and is not accepted here.
func (s *lifecycleService) Advance(ctx context.Context, actor model.Actor, assignmentID string, next model.DevelopmentStatus) (*model.PrivateStyleAssignment, error) {
	if !next.Valid() || next == model.DevelopmentUndefined || next == model.DevelopmentAbandoned {
		return nil, ErrInvalidTransition
	}

	var assignment *model.PrivateStyleAssignment
	var previous model.DevelopmentStatus
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		a, err := s.lockAssignment(repos, actor, assignmentID)
		if err != nil {
			return err
		}
		if a.AssignmentStatus != model.AssignmentDeveloping {
			return ErrInvalidTransition
		}
		if !a.DevelopmentStatus.CanAdvanceTo(next) {
			return ErrInvalidTransition
		}
		if next.RequiresSpu() && !a.HasSpu() {
			return ErrMissingSpu
		}

		heldQuota := a.HoldsQuota()
		previous = a.DevelopmentStatus
		a.DevelopmentStatus = next
		if next == model.DevelopmentSuccess {
			if !a.AssignmentStatus.CanTransitionTo(model.AssignmentCompleted) {
				return ErrInvalidTransition
			}
			now := s.now()
			a.AssignmentStatus = model.AssignmentCompleted
			a.CompletedAt = &now
		}
		if err := repos.Assignments.Update(a); err != nil {
			return err
		}

		out.add(model.EventLifecycleTransitioned, a.ID, a.ShopID, map[string]interface{}{
			"from": previous,
			"to":   next,
		})

		if a.AssignmentStatus == model.AssignmentCompleted {
			if heldQuota {
				if err := repos.Quotas.Decrement(a.ShopID); err != nil {
					return err
				}
			}
			out.add(model.EventAssignmentCompleted, a.ID, a.ShopID, map[string]interface{}{
				"origin":    a.Origin,
				"spu_codes": a.SpuCodes,
			})
		}
		assignment = a
		return nil
	})
	if err != nil {
		logRejection("Lifecycle transition rejected", err, assignmentID, actor.ShopID)
		return nil, err
	}

	logger.Info("Lifecycle transitioned", map[string]interface{}{
		"assignment_id": assignmentID,
		"from":          previous,
		"to":            next,
	})
	return assignment, nil
}

// AttachSpu records SPU codes on a developing assignment. Codes already on
// the assignment are kept first; new ones follow in the given order.
func (s *lifecycleService) AttachSpu(ctx context.Context, actor model.Actor, assignmentID string, codes []string) (*model.PrivateStyleAssignment, error) {
	codes = uniqueNonEmpty(codes)
	if len(codes) == 0 {
		return nil, ErrMissingSpu
	}

	var assignment *model.PrivateStyleAssignment
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		a, err := s.lockAssignment(repos, actor, assignmentID)
		if err != nil {
			return err
		}
		if a.AssignmentStatus != model.AssignmentDeveloping {
			return ErrInvalidTransition
		}

		a.SpuCodes = model.StringArray(uniqueNonEmpty(append([]string(a.SpuCodes), codes...)))
		if err := repos.Assignments.Update(a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		logRejection("SPU attach rejected", err, assignmentID, actor.ShopID)
		return nil, err
	}

	logger.Info("SPU codes attached", map[string]interface{}{
		"assignment_id": assignmentID,
		"spu_codes":     strings.Join(assignment.SpuCodes, ","),
	})
	return assignment, nil
}
