package service

import (
	"context"
	"errors"
	"time"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
)

// QuotaView is a shop's ledger entry together with its effective cap.
type QuotaView struct {
	ShopID      string `json:"shop_id"`
	ActiveCount int    `json:"active_count"`
	Cap         int    `json:"cap"`
	Remaining   int    `json:"remaining"`
}

// CatalogService serves the read side: the pool, dashboards, quota and event history.
type CatalogService interface {
	ListPool(ctx context.Context, shopID string) ([]model.PublicStyleListing, error)
	ListListings(ctx context.Context, statuses ...model.ListingStatus) ([]model.PublicStyleListing, error)
	GetListing(ctx context.Context, listingID string) (*model.PublicStyleListing, error)
	ListAssignments(ctx context.Context, filter repository.AssignmentFilter) ([]model.PrivateStyleAssignment, error)
	GetAssignment(ctx context.Context, actor model.Actor, assignmentID string) (*model.PrivateStyleAssignment, error)
	GetQuota(ctx context.Context, shopID string) (*QuotaView, error)
	ListEvents(ctx context.Context, actor model.Actor, afterID uint, limit int) ([]model.StyleEvent, error)
}

type catalogService struct {
	db    *gorm.DB
	repos *repository.Repositories
	cfg   config.AllocationConfig
	now   func() time.Time
}

func NewCatalogService(db *gorm.DB, repos *repository.Repositories, cfg config.AllocationConfig) CatalogService {
	return &catalogService{db: db, repos: repos, cfg: cfg, now: time.Now}
}

func (s *catalogService) scoped(ctx context.Context) *repository.Repositories {
	return s.repos.WithTx(s.db.WithContext(ctx))
}

// ListPool returns what shopID can act on in the public pool, in priority order.
// Listings the shop has already confirmed are left out.
func (s *catalogService) ListPool(ctx context.Context, shopID string) ([]model.PublicStyleListing, error) {
	repos := s.scoped(ctx)
	listings, err := repos.Listings.FindByStatus(model.ListingOpen)
	if err != nil {
		return nil, err
	}
	confirmed, err := repos.Assignments.ListingIDsByShop(shopID)
	if err != nil {
		return nil, err
	}

	visible := VisibleTo(listings, shopID, confirmed...)
	logger.Debug("Pool listed for shop", map[string]interface{}{
		"shop_id": shopID,
		"open":    len(listings),
		"visible": len(visible),
	})
	return SortListings(visible, s.now(), s.cfg.AgingThreshold), nil
}

func (s *catalogService) ListListings(ctx context.Context, statuses ...model.ListingStatus) ([]model.PublicStyleListing, error) {
	listings, err := s.scoped(ctx).Listings.FindByStatus(statuses...)
	if err != nil {
		return nil, err
	}
	return SortListings(listings, s.now(), s.cfg.AgingThreshold), nil
}

func (s *catalogService) GetListing(ctx context.Context, listingID string) (*model.PublicStyleListing, error) {
	listing, err := s.scoped(ctx).Listings.FindByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (s *catalogService) ListAssignments(ctx context.Context, filter repository.AssignmentFilter) ([]model.PrivateStyleAssignment, error) {
	return s.scoped(ctx).Assignments.Find(filter)
}

func (s *catalogService) GetAssignment(ctx context.Context, actor model.Actor, assignmentID string) (*model.PrivateStyleAssignment, error) {
	assignment, err := s.scoped(ctx).Assignments.FindByID(assignmentID)
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

func (s *catalogService) GetQuota(ctx context.Context, shopID string) (*QuotaView, error) {
	repos := s.scoped(ctx)
	shop, err := repos.Shops.FindByID(shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidTarget
		}
		return nil, err
	}

	active, err := repos.Quotas.Get(shopID)
	if err != nil {
		return nil, err
	}

	limit := shop.QuotaCap(s.cfg.DefaultShopCap)
	remaining := limit - active
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaView{
		ShopID:      shopID,
		ActiveCount: active,
		Cap:         limit,
		Remaining:   remaining,
	}, nil
}

// ListEvents pages through the outbox. Shops only see their own and broadcast events.
func (s *catalogService) ListEvents(ctx context.Context, actor model.Actor, afterID uint, limit int) ([]model.StyleEvent, error) {
	shopID := ""
	if actor.Role == model.RoleShop {
		if actor.ShopID == "" {
			return nil, ErrInvalidTarget
		}
		shopID = actor.ShopID
	}
	return s.scoped(ctx).Events.ListSince(afterID, shopID, limit)
}
