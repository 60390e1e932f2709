package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
)

type LifecycleController struct {
	lifecycleService service.LifecycleService
}

func NewLifecycleController(lifecycleService service.LifecycleService) *LifecycleController {
	return &LifecycleController{
		lifecycleService: lifecycleService,
	}
}

type AdvanceRequest struct {
	Status model.DevelopmentStatus `json:"status" binding:"required"`
}

type AttachSpuRequest struct {
	SpuCodes []string `json:"spu_codes" binding:"required,min=1"`
}

// Advance moves an assignment forward in development
// PUT /api/v1/assignments/:id/development
func (ctrl *LifecycleController) Advance(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req AdvanceRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := ctrl.lifecycleService.Advance(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "advance assignment", map[string]interface{}{
			"assignment_id": c.Param("id"),
			"target":        req.Status,
		})
		return
	}

	log.Info("Development status changed", map[string]interface{}{
		"assignment_id":      assignment.ID,
		"development_status": assignment.DevelopmentStatus,
	})

	c.JSON(http.StatusOK, gin.H{
		"assignment": assignment,
	})
}

// AttachSpu registers SPU codes on an assignment
// POST /api/v1/assignments/:id/spu
func (ctrl *LifecycleController) AttachSpu(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req AttachSpuRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := ctrl.lifecycleService.AttachSpu(c.Request.Context(), actor, c.Param("id"), req.SpuCodes)
	if err != nil {
		respondError(c, err, "attach spu to assignment", map[string]interface{}{
			"assignment_id": c.Param("id"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignment": assignment,
	})
}
