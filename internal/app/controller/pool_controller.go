package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
)

// PoolController serves the shop side of the public pool.
type PoolController struct {
	allocationService service.AllocationService
	catalogService    service.CatalogService
}

func NewPoolController(allocationService service.AllocationService, catalogService service.CatalogService) *PoolController {
	return &PoolController{
		allocationService: allocationService,
		catalogService:    catalogService,
	}
}

// ListPool returns the listings the shop can act on, highest priority first
// GET /api/v1/pool
func (ctrl *PoolController) ListPool(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	listings, err := ctrl.catalogService.ListPool(c.Request.Context(), actor.ShopID)
	if err != nil {
		respondError(c, err, "list pool", map[string]interface{}{
			"shop_id": actor.ShopID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// ExpressInterest takes one slot of a listing
// POST /api/v1/pool/:id/interest
func (ctrl *PoolController) ExpressInterest(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	listingID := c.Param("id")

	listing, err := ctrl.allocationService.ExpressInterest(c.Request.Context(), listingID, actor.ShopID)
	if err != nil {
		respondError(c, err, "express interest in listing", map[string]interface{}{
			"listing_id": listingID,
			"shop_id":    actor.ShopID,
		})
		return
	}

	log.Info("Interest expressed", map[string]interface{}{
		"listing_id":   listing.ID,
		"shop_id":      actor.ShopID,
		"intent_count": listing.IntentCount,
	})

	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

// ConfirmPublic turns a pool listing into a private assignment
// POST /api/v1/pool/:id/confirm
func (ctrl *PoolController) ConfirmPublic(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	listingID := c.Param("id")

	assignment, err := ctrl.allocationService.ConfirmPublic(c.Request.Context(), listingID, actor.ShopID)
	if err != nil {
		respondError(c, err, "confirm listing", map[string]interface{}{
			"listing_id": listingID,
			"shop_id":    actor.ShopID,
		})
		return
	}

	log.Info("Listing confirmed", map[string]interface{}{
		"listing_id":    listingID,
		"assignment_id": assignment.ID,
		"shop_id":       actor.ShopID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"assignment": assignment,
	})
}

// GetQuota returns the shop's ledger entry
// GET /api/v1/shop/quota
func (ctrl *PoolController) GetQuota(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	quota, err := ctrl.catalogService.GetQuota(c.Request.Context(), actor.ShopID)
	if err != nil {
		respondError(c, err, "get shop quota", map[string]interface{}{
			"shop_id": actor.ShopID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quota": quota,
	})
}
