package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	apperrors "github.com/havaxeban925-ux/scm-backend/internal/errors"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
)

type AllocationController struct {
	allocationService service.AllocationService
	catalogService    service.CatalogService
}

func NewAllocationController(allocationService service.AllocationService, catalogService service.CatalogService) *AllocationController {
	return &AllocationController{
		allocationService: allocationService,
		catalogService:    catalogService,
	}
}

type StyleRequest struct {
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"image_url"`
	Remark   string `json:"remark"`
	RefLink  string `json:"ref_link"`
}

func (r StyleRequest) meta() model.StyleMeta {
	return model.StyleMeta{
		Name:     strings.TrimSpace(r.Name),
		ImageURL: r.ImageURL,
		Remark:   r.Remark,
		RefLink:  r.RefLink,
	}
}

type PushPrivateRequest struct {
	StyleRequest
	ShopIDs      []string   `json:"shop_ids" binding:"required,min=1"`
	LockDeadline *time.Time `json:"lock_deadline"`
}

type PublishListingRequest struct {
	StyleRequest
	MaxIntents *int `json:"max_intents"`
}

type AbandonRequest struct {
	Reason string `json:"reason"`
}

// PushPrivate creates one private assignment per target shop
// POST /api/v1/buyer/assignments
func (ctrl *AllocationController) PushPrivate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PushPrivateRequest
	if !bindJSON(c, &req) {
		return
	}

	assignments, err := ctrl.allocationService.PushPrivate(c.Request.Context(), service.PushPrivateInput{
		Style:        req.meta(),
		ShopIDs:      req.ShopIDs,
		LockDeadline: req.LockDeadline,
	})
	if err != nil {
		respondError(c, err, "push assignment", map[string]interface{}{
			"shop_ids": req.ShopIDs,
		})
		return
	}

	log.Info("Style pushed to shops", map[string]interface{}{
		"count": len(assignments),
	})

	c.JSON(http.StatusCreated, gin.H{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

// PublishListing opens a style to every shop in the public pool
// POST /api/v1/buyer/listings
func (ctrl *AllocationController) PublishListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PublishListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := ctrl.allocationService.PublishPublic(c.Request.Context(), req.meta(), req.MaxIntents)
	if err != nil {
		respondError(c, err, "publish listing", nil)
		return
	}

	log.Info("Listing published", map[string]interface{}{
		"listing_id":  listing.ID,
		"max_intents": listing.MaxIntents,
	})

	c.JSON(http.StatusCreated, gin.H{
		"listing": listing,
	})
}

// WithdrawListing takes a listing out of the pool
// DELETE /api/v1/buyer/listings/:id
func (ctrl *AllocationController) WithdrawListing(c *gin.Context) {
	listingID := c.Param("id")

	listing, err := ctrl.allocationService.WithdrawListing(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err, "withdraw listing", map[string]interface{}{
			"listing_id": listingID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

// ListListings returns every listing, optionally filtered by ?status=open,closed
// GET /api/v1/buyer/listings
func (ctrl *AllocationController) ListListings(c *gin.Context) {
	var statuses []model.ListingStatus
	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := model.ListingStatus(raw)
		switch status {
		case model.ListingOpen, model.ListingClosed, model.ListingWithdrawn:
			statuses = append(statuses, status)
		default:
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "알 수 없는 상태값입니다")
			return
		}
	}

	listings, err := ctrl.catalogService.ListListings(c.Request.Context(), statuses...)
	if err != nil {
		respondError(c, err, "list listings", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetListing returns one listing with its intent holders
// GET /api/v1/buyer/listings/:id
func (ctrl *AllocationController) GetListing(c *gin.Context) {
	listing, err := ctrl.catalogService.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get listing", map[string]interface{}{
			"listing_id": c.Param("id"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

// ListAssignments is the buyer dashboard
// GET /api/v1/buyer/assignments?shop_id=&status=&origin=&listing_id=
func (ctrl *AllocationController) ListAssignments(c *gin.Context) {
	filter, ok := assignmentFilterFromQuery(c)
	if !ok {
		return
	}
	ctrl.listAssignments(c, filter)
}

// ListShopAssignments returns the calling shop's assignments
// GET /api/v1/shop/assignments
func (ctrl *AllocationController) ListShopAssignments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter, ok := assignmentFilterFromQuery(c)
	if !ok {
		return
	}
	filter.ShopID = actor.ShopID
	ctrl.listAssignments(c, filter)
}

func (ctrl *AllocationController) listAssignments(c *gin.Context, filter repository.AssignmentFilter) {
	assignments, err := ctrl.catalogService.ListAssignments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "list assignments", map[string]interface{}{
			"shop_id": filter.ShopID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

// GetAssignment returns one assignment visible to the caller
// GET /api/v1/assignments/:id
func (ctrl *AllocationController) GetAssignment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	assignment, err := ctrl.catalogService.GetAssignment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "get assignment", map[string]interface{}{
			"assignment_id": c.Param("id"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignment": assignment,
	})
}

// ConfirmPrivate accepts a pushed style and starts development
// POST /api/v1/assignments/:id/confirm
func (ctrl *AllocationController) ConfirmPrivate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	assignment, err := ctrl.allocationService.ConfirmPrivate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "confirm assignment", map[string]interface{}{
			"assignment_id": c.Param("id"),
			"subject":       actor.Subject,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignment": assignment,
	})
}

// Abandon gives an assignment up with a reason
// POST /api/v1/assignments/:id/abandon
func (ctrl *AllocationController) Abandon(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req AbandonRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := ctrl.allocationService.Abandon(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "abandon assignment", map[string]interface{}{
			"assignment_id": c.Param("id"),
			"subject":       actor.Subject,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignment": assignment,
	})
}

func assignmentFilterFromQuery(c *gin.Context) (repository.AssignmentFilter, bool) {
	filter := repository.AssignmentFilter{
		ShopID:    c.Query("shop_id"),
		ListingID: c.Query("listing_id"),
		Origin:    model.AssignmentOrigin(c.Query("origin")),
		Status:    model.AssignmentStatus(c.Query("status")),
	}
	if filter.Origin != "" && !filter.Origin.Valid() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "알 수 없는 배정 경로입니다")
		return filter, false
	}
	if filter.Status != "" && !filter.Status.Valid() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "알 수 없는 상태값입니다")
		return filter, false
	}
	return filter, true
}
