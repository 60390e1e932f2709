package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	apperrors "github.com/havaxeban925-ux/scm-backend/internal/errors"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
	ws "github.com/havaxeban925-ux/scm-backend/internal/websocket"
)

type EventController struct {
	catalogService service.CatalogService
	hub            *ws.Hub
	upgrader       gorillaws.Upgrader
}

func NewEventController(catalogService service.CatalogService, hub *ws.Hub, allowedOrigins []string) *EventController {
	return &EventController{
		catalogService: catalogService,
		hub:            hub,
		upgrader:       ws.NewUpgrader(allowedOrigins),
	}
}

// ListEvents pages through the event history
// GET /api/v1/events?after=&limit=
func (ctrl *EventController) ListEvents(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var afterID uint64
	if raw := c.Query("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 이벤트 ID입니다")
			return
		}
		afterID = parsed
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "잘못된 limit 값입니다")
		return
	}

	events, err := ctrl.catalogService.ListEvents(c.Request.Context(), actor, uint(afterID), limit)
	if err != nil {
		respondError(c, err, "list events", map[string]interface{}{
			"after_id": afterID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// Stream upgrades the connection and pushes events as they are committed
// GET /api/v1/ws/events
// 쿼리 파라미터로 토큰을 받지만, 로깅하지 않음 (보안)
func (ctrl *EventController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, actor)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"subject": actor.Subject,
		"role":    actor.Role,
	})
}
