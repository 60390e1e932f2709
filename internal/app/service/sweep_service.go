package service

import (
	"context"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
)

// QuotaDrift is a ledger row that disagreed with the assignment table.
type QuotaDrift struct {
	ShopID   string `json:"shop_id"`
	Recorded int    `json:"recorded"`
	Actual   int    `json:"actual"`
}

// SweepService holds the scheduled maintenance jobs that run beside the engine.
type SweepService interface {
	CloseSettledListings(ctx context.Context) (int, error)
	ReconcileQuotas(ctx context.Context) ([]QuotaDrift, error)
}

type sweepService struct {
	engine
}

func NewSweepService(
	db *gorm.DB,
	repos *repository.Repositories,
	publisher events.Publisher,
	cfg config.AllocationConfig,
) SweepService {
	return &sweepService{engine: newEngine(db, repos, publisher, cfg)}
}

// CloseSettledListings closes full listings where every slot holder took the
// style and every assignment drawn from it has finished.
func (s *sweepService) CloseSettledListings(ctx context.Context) (int, error) {
	candidates, err := s.repos.WithTx(s.db.WithContext(ctx)).Listings.FindFull()
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, candidate := range candidates {
		listingID := candidate.ID
		var didClose bool
		err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
			didClose = false
			l, err := lockListing(repos, listingID)
			if err != nil {
				return err
			}
			if !l.IsOpen() || !l.Hidden() {
				return nil
			}

			assignments, err := repos.Assignments.Find(repository.AssignmentFilter{ListingID: l.ID})
			if err != nil {
				return err
			}
			if !settled(l, assignments) {
				return nil
			}

			if err := repos.Listings.UpdateStatus(l.ID, model.ListingClosed); err != nil {
				return err
			}
			out.add(model.EventListingClosed, l.ID, "", map[string]interface{}{
				"assignments": len(assignments),
			})
			didClose = true
			return nil
		})
		if err != nil {
			logger.Error("Failed to close settled listing", err, map[string]interface{}{
				"listing_id": listingID,
			})
			return closed, err
		}
		if didClose {
			closed++
		}
	}

	logger.Info("Listing close sweep finished", map[string]interface{}{
		"candidates": len(candidates),
		"closed":     closed,
	})
	return closed, nil
}

func settled(listing *model.PublicStyleListing, assignments []model.PrivateStyleAssignment) bool {
	owners := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !a.AssignmentStatus.IsTerminal() {
			return false
		}
		owners[a.ShopID] = true
	}
	for _, shopID := range listing.IntentShopIDs() {
		if !owners[shopID] {
			return false
		}
	}
	return true
}

// ReconcileQuotas recomputes every ledger row from the assignment table and
// repairs the rows that drifted.
func (s *sweepService) ReconcileQuotas(ctx context.Context) ([]QuotaDrift, error) {
	repos := s.repos.WithTx(s.db.WithContext(ctx))

	counts, err := repos.Assignments.CountActivePoolByShop()
	if err != nil {
		return nil, err
	}
	entries, err := repos.Quotas.FindAll()
	if err != nil {
		return nil, err
	}

	suspects := make(map[string]struct{})
	recorded := make(map[string]int, len(entries))
	for _, entry := range entries {
		recorded[entry.ShopID] = entry.ActiveCount
		if counts[entry.ShopID] != entry.ActiveCount {
			suspects[entry.ShopID] = struct{}{}
		}
	}
	for shopID, count := range counts {
		if recorded[shopID] != count {
			suspects[shopID] = struct{}{}
		}
	}

	var drifts []QuotaDrift
	for shopID := range suspects {
		var drift *QuotaDrift
		err := s.inTx(ctx, func(repos *repository.Repositories, out *outbox) error {
			drift = nil
			current, err := repos.Quotas.Get(shopID)
			if err != nil {
				return err
			}
			actual, err := repos.Quotas.Recompute(shopID)
			if err != nil {
				return err
			}
			if current == actual {
				return nil
			}
			if err := repos.Quotas.Set(shopID, actual); err != nil {
				return err
			}
			drift = &QuotaDrift{ShopID: shopID, Recorded: current, Actual: actual}
			return nil
		})
		if err != nil {
			return drifts, err
		}
		if drift != nil {
			logger.Warn("Quota ledger drift repaired", map[string]interface{}{
				"shop_id":  drift.ShopID,
				"recorded": drift.Recorded,
				"actual":   drift.Actual,
			})
			drifts = append(drifts, *drift)
		}
	}

	logger.Info("Quota reconciliation finished", map[string]interface{}{
		"checked":  len(suspects),
		"repaired": len(drifts),
	})
	return drifts, nil
}
