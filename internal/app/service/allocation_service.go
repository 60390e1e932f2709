package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
)

// PushPrivateInput is a buyer's direct push of one style to named shops.
type PushPrivateInput struct {
	Style        model.StyleMeta
	ShopIDs      []string
	LockDeadline *time.Time
}

// AllocationService decides who gets which style: direct pushes, the public
// pool with its capacity and quota rules, confirmation and abandonment.
type AllocationService interface {
	PushPrivate(ctx context.Context, input PushPrivateInput) ([]model.PrivateStyleAssignment, error)
	PublishPublic(ctx context.Context, style model.StyleMeta, maxIntents *int) (*model.PublicStyleListing, error)
	WithdrawListing(ctx context.Context, listingID string) (*model.PublicStyleListing, error)
	ExpressInterest(ctx context.Context, listingID, shopID string) (*model.PublicStyleListing, error)
	ConfirmPublic(ctx context.Context, listingID, shopID string) (*model.PrivateStyleAssignment, error)
	ConfirmPrivate(ctx context.Context, actor model.Actor, assignmentID string) (*model.PrivateStyleAssignment, error)
	Abandon(ctx context.Context, actor model.Actor, assignmentID, reason string) (*model.PrivateStyleAssignment, error)
}

type allocationService struct {
	engine
}

func NewAllocationService(
	db *gorm.DB,
	repos *repository.Repositories,
	publisher events.Publisher,
	cfg config.AllocationConfig,
) AllocationService {
	return &allocationService{engine: newEngine(db, repos, publisher, cfg)}
}

func (s *allocationService) PushPrivate(ctx context.Context, input PushPrivateInput) ([]model.PrivateStyleAssignment, error) {
	shopIDs := uniqueNonEmpty(input.ShopIDs)

	logger.Info("Pushing private style", map[string]interface{}{
		"name":       input.Style.Name,
		"shop_count": len(shopIDs),
	})

	if len(shopIDs) == 0 || hasBlank(input.ShopIDs) {
		logger.Warn("Push rejected: no target shops", map[string]interface{}{
			"name": input.Style.Name,
		})
		return nil, ErrInvalidTarget
	}

	status := model.AssignmentNew
	if input.LockDeadline != nil {
		status = model.AssignmentLocked
	}

	var created []*model.PrivateStyleAssignment
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		shops, err := repos.Shops.FindByIDs(shopIDs)
		if err != nil {
			return err
		}
		if len(shops) != len(shopIDs) {
			logger.Warn("Push rejected: unknown shop in targets", map[string]interface{}{
				"requested": len(shopIDs),
				"found":     len(shops),
			})
			return ErrInvalidTarget
		}

		created = make([]*model.PrivateStyleAssignment, 0, len(shopIDs))
		for _, shopID := range shopIDs {
			created = append(created, &model.PrivateStyleAssignment{
				StyleMeta:        input.Style,
				ShopID:           shopID,
				Origin:           model.OriginDirectPush,
				AssignmentStatus: status,
				LockDeadline:     input.LockDeadline,
			})
		}
		if err := repos.Assignments.CreateBatch(created); err != nil {
			return err
		}

		for _, a := range created {
			out.add(model.EventAssignmentCreated, a.ID, a.ShopID, map[string]interface{}{
				"origin":            a.Origin,
				"assignment_status": a.AssignmentStatus,
				"name":              a.Name,
				"lock_deadline":     a.LockDeadline,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]model.PrivateStyleAssignment, 0, len(created))
	for _, a := range created {
		result = append(result, *a)
	}

	logger.Info("Private style pushed", map[string]interface{}{
		"name":        input.Style.Name,
		"assignments": len(result),
	})
	return result, nil
}

func (s *allocationService) PublishPublic(ctx context.Context, style model.StyleMeta, maxIntents *int) (*model.PublicStyleListing, error) {
	capacity := s.cfg.DefaultMaxIntents
	if maxIntents != nil {
		capacity = *maxIntents
	}
	if capacity <= 0 {
		logger.Warn("Publish rejected: invalid capacity", map[string]interface{}{
			"name":        style.Name,
			"max_intents": capacity,
		})
		return nil, ErrInvalidCapacity
	}

	listing := &model.PublicStyleListing{
		StyleMeta:  style,
		MaxIntents: capacity,
		Status:     model.ListingOpen,
	}
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		if err := repos.Listings.Create(listing); err != nil {
			return err
		}
		out.add(model.EventListingPublished, listing.ID, "", map[string]interface{}{
			"name":        listing.Name,
			"max_intents": listing.MaxIntents,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Public style published", map[string]interface{}{
		"listing_id":  listing.ID,
		"max_intents": listing.MaxIntents,
	})
	return listing, nil
}

func (s *allocationService) WithdrawListing(ctx context.Context, listingID string) (*model.PublicStyleListing, error) {
	var listing *model.PublicStyleListing
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		l, err := lockListing(repos, listingID)
		if err != nil {
			return err
		}
		if l.Status == model.ListingWithdrawn {
			return ErrListingNotFound
		}
		if err := repos.Listings.UpdateStatus(l.ID, model.ListingWithdrawn); err != nil {
			return err
		}
		l.Status = model.ListingWithdrawn
		out.add(model.EventListingWithdrawn, l.ID, "", map[string]interface{}{
			"intent_count": l.IntentCount,
		})
		listing = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Public listing withdrawn", map[string]interface{}{
		"listing_id": listingID,
	})
	return listing, nil
}

// ExpressInterest takes one slot of an open listing for shopID. The shop's
// quota is checked but not consumed.
func (s *allocationService) ExpressInterest(ctx context.Context, listingID, shopID string) (*model.PublicStyleListing, error) {
	logger.Info("Expressing interest in listing", map[string]interface{}{
		"listing_id": listingID,
		"shop_id":    shopID,
	})

	var listing *model.PublicStyleListing
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		shop, err := s.shopFor(repos, shopID)
		if err != nil {
			return err
		}

		l, err := lockListing(repos, listingID)
		if err != nil {
			return err
		}
		if !l.IsOpen() {
			return ErrListingNotFound
		}
		if l.HasIntent(shopID) {
			return ErrDuplicateInterest
		}
		if l.Hidden() {
			return ErrCapacityExceeded
		}

		active, err := repos.Quotas.Get(shopID)
		if err != nil {
			return err
		}
		if active >= shop.QuotaCap(s.cfg.DefaultShopCap) {
			return ErrShopQuotaExceeded
		}

		added, err := repos.Listings.AddIntent(l.ID, shopID)
		if err != nil {
			return err
		}
		if !added {
			return ErrCapacityExceeded
		}
		recordIntent(l, shopID, s.now())

		out.add(model.EventInterestExpressed, l.ID, shopID, map[string]interface{}{
			"intent_count": l.IntentCount,
			"max_intents":  l.MaxIntents,
		})
		if l.Hidden() {
			out.add(model.EventListingCapacityReached, l.ID, "", capacityPayload(l))
		}
		listing = l
		return nil
	})
	if err != nil {
		logRejection("Interest rejected", err, listingID, shopID)
		return nil, err
	}

	logger.Info("Interest expressed", map[string]interface{}{
		"listing_id":   listingID,
		"shop_id":      shopID,
		"intent_count": listing.IntentCount,
	})
	return listing, nil
}

// ConfirmPublic turns a listing slot into an owned assignment. The listing
// row stays locked for the whole transaction and both counters move through
// conditional updates, so concurrent confirms for the last slot cannot both win.
func (s *allocationService) ConfirmPublic(ctx context.Context, listingID, shopID string) (*model.PrivateStyleAssignment, error) {
	logger.Info("Confirming public listing", map[string]interface{}{
		"listing_id": listingID,
		"shop_id":    shopID,
	})

	var assignment *model.PrivateStyleAssignment
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		shop, err := s.shopFor(repos, shopID)
		if err != nil {
			return err
		}

		l, err := lockListing(repos, listingID)
		if err != nil {
			return err
		}
		if !l.IsOpen() {
			return ErrListingNotFound
		}

		confirmed, err := repos.Assignments.ExistsForListing(l.ID, shopID)
		if err != nil {
			return err
		}
		if confirmed {
			return ErrAlreadyConfirmed
		}

		reserved := l.HasIntent(shopID)
		if !reserved && l.Hidden() {
			return ErrCapacityExceeded
		}

		ok, err := repos.Quotas.Increment(shopID, shop.QuotaCap(s.cfg.DefaultShopCap))
		if err != nil {
			return err
		}
		if !ok {
			return ErrShopQuotaExceeded
		}

		if !reserved {
			added, err := repos.Listings.AddIntent(l.ID, shopID)
			if err != nil {
				return err
			}
			if !added {
				return ErrCapacityExceeded
			}
			recordIntent(l, shopID, s.now())
			out.add(model.EventInterestExpressed, l.ID, shopID, map[string]interface{}{
				"intent_count": l.IntentCount,
				"max_intents":  l.MaxIntents,
				"direct":       true,
			})
			if l.Hidden() {
				out.add(model.EventListingCapacityReached, l.ID, "", capacityPayload(l))
			}
		}

		now := s.now()
		listingRef := l.ID
		assignment = &model.PrivateStyleAssignment{
			StyleMeta:         l.StyleMeta,
			ShopID:            shopID,
			Origin:            model.OriginFromPool,
			ListingID:         &listingRef,
			AssignmentStatus:  model.AssignmentDeveloping,
			DevelopmentStatus: model.DevelopmentDrafting,
			ConfirmedAt:       &now,
		}
		if err := repos.Assignments.Create(assignment); err != nil {
			return err
		}

		out.add(model.EventAssignmentCreated, assignment.ID, shopID, map[string]interface{}{
			"origin":     assignment.Origin,
			"listing_id": l.ID,
			"name":       assignment.Name,
		})
		return nil
	})
	if err != nil {
		logRejection("Public confirm rejected", err, listingID, shopID)
		return nil, err
	}

	logger.Info("Public listing confirmed", map[string]interface{}{
		"listing_id":    listingID,
		"shop_id":       shopID,
		"assignment_id": assignment.ID,
	})
	return assignment, nil
}

func (s *allocationService) ConfirmPrivate(ctx context.Context, actor model.Actor, assignmentID string) (*model.PrivateStyleAssignment, error) {
	var assignment *model.PrivateStyleAssignment
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		a, err := s.lockAssignment(repos, actor, assignmentID)
		if err != nil {
			return err
		}
		if !a.AssignmentStatus.CanTransitionTo(model.AssignmentDeveloping) {
			return ErrNotPending
		}

		now := s.now()
		a.AssignmentStatus = model.AssignmentDeveloping
		a.DevelopmentStatus = model.DevelopmentDrafting
		a.ConfirmedAt = &now
		if err := repos.Assignments.Update(a); err != nil {
			return err
		}

		out.add(model.EventAssignmentConfirmed, a.ID, a.ShopID, map[string]interface{}{
			"confirmed_by": actor.Role,
		})
		assignment = a
		return nil
	})
	if err != nil {
		logRejection("Private confirm rejected", err, assignmentID, actor.ShopID)
		return nil, err
	}

	logger.Info("Private assignment confirmed", map[string]interface{}{
		"assignment_id": assignmentID,
		"shop_id":       assignment.ShopID,
		"role":          actor.Role,
	})
	return assignment, nil
}

// Abandon closes a live assignment. A pool-origin assignment gives its quota
// back and the shop's intent slot on the listing stays taken. What happens
// next follows the pool abandon policy: retain leaves the listing alone,
// reopen grows it by one slot, recycle hands the style back to the same
// shop as a new direct assignment.
func (s *allocationService) Abandon(ctx context.Context, actor model.Actor, assignmentID, reason string) (*model.PrivateStyleAssignment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrInvalidReason
	}

	var assignment *model.PrivateStyleAssignment
	err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
		a, err := s.lockAssignment(repos, actor, assignmentID)
		if err != nil {
			return err
		}
		if !a.AssignmentStatus.CanTransitionTo(model.AssignmentAbandoned) {
			return ErrInvalidTransition
		}

		heldQuota := a.HoldsQuota()
		// 확정과 같은 순서로 잠근다: listing 다음 quota
		if heldQuota && a.ListingID != nil {
			if _, err := lockListing(repos, *a.ListingID); err != nil {
				return err
			}
		}

		now := s.now()
		previous := a.DevelopmentStatus
		a.AssignmentStatus = model.AssignmentAbandoned
		a.DevelopmentStatus = model.DevelopmentAbandoned
		a.AbandonReason = &reason
		a.AbandonedAt = &now
		if err := repos.Assignments.Update(a); err != nil {
			return err
		}

		if heldQuota {
			if err := repos.Quotas.Decrement(a.ShopID); err != nil {
				return err
			}
			if err := s.applyAbandonPolicy(repos, out, a); err != nil {
				return err
			}
		}

		out.add(model.EventAssignmentAbandoned, a.ID, a.ShopID, map[string]interface{}{
			"origin":             a.Origin,
			"reason":             reason,
			"development_status": previous,
			"abandoned_by":       actor.Role,
		})
		assignment = a
		return nil
	})
	if err != nil {
		logRejection("Abandon rejected", err, assignmentID, actor.ShopID)
		return nil, err
	}

	logger.Info("Assignment abandoned", map[string]interface{}{
		"assignment_id": assignmentID,
		"shop_id":       assignment.ShopID,
		"origin":        assignment.Origin,
		"policy":        s.cfg.PoolAbandonPolicy,
	})
	return assignment, nil
}

func (s *allocationService) applyAbandonPolicy(repos *repository.Repositories, out *outbox, abandoned *model.PrivateStyleAssignment) error {
	switch s.cfg.PoolAbandonPolicy {
	case config.PoolAbandonReopen:
		if abandoned.ListingID == nil {
			return nil
		}
		grown, err := repos.Listings.GrowCapacity(*abandoned.ListingID)
		if err != nil {
			return err
		}
		if grown {
			out.add(model.EventListingReopened, *abandoned.ListingID, "", map[string]interface{}{
				"abandoned_assignment_id": abandoned.ID,
			})
		}
	case config.PoolAbandonRecycle:
		recycled := &model.PrivateStyleAssignment{
			StyleMeta:        abandoned.StyleMeta,
			ShopID:           abandoned.ShopID,
			Origin:           model.OriginDirectPush,
			AssignmentStatus: model.AssignmentNew,
		}
		if err := repos.Assignments.Create(recycled); err != nil {
			return err
		}
		out.add(model.EventAssignmentCreated, recycled.ID, recycled.ShopID, map[string]interface{}{
			"origin":        recycled.Origin,
			"name":          recycled.Name,
			"recycled_from": abandoned.ID,
			"listing_id":    abandoned.ListingID,
		})
	}
	return nil
}

func lockListing(repos *repository.Repositories, listingID string) (*model.PublicStyleListing, error) {
	listing, err := repos.Listings.FindByIDForUpdate(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

// capacityPayload goes to every shop, so it carries counts only.
func capacityPayload(l *model.PublicStyleListing) map[string]interface{} {
	return map[string]interface{}{
		"intent_count": l.IntentCount,
		"max_intents":  l.MaxIntents,
	}
}

func recordIntent(listing *model.PublicStyleListing, shopID string, at time.Time) {
	listing.IntentCount++
	listing.Intents = append(listing.Intents, model.ListingIntent{
		ListingID: listing.ID,
		ShopID:    shopID,
		CreatedAt: at,
	})
}

func logRejection(msg string, err error, subjectID, shopID string) {
	fields := map[string]interface{}{
		"subject_id": subjectID,
		"shop_id":    shopID,
	}
	if IsDomainError(err) {
		fields["reason"] = err.Error()
		logger.Warn(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func hasBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
