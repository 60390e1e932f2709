package router

import (
	"github.com/gin-gonic/gin"
	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/controller"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
)

type Router struct {
	allocationController *controller.AllocationController
	poolController       *controller.PoolController
	lifecycleController  *controller.LifecycleController
	eventController      *controller.EventController
	authMiddleware       *middleware.AuthMiddleware
	config               *config.Config
}

func NewRouter(
	allocationController *controller.AllocationController,
	poolController *controller.PoolController,
	lifecycleController *controller.LifecycleController,
	eventController *controller.EventController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		allocationController: allocationController,
		poolController:       poolController,
		lifecycleController:  lifecycleController,
		eventController:      eventController,
		authMiddleware:       authMiddleware,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "SCM style allocation API is running",
		})
	})

	buyerOnly := r.authMiddleware.RequireRole(model.RoleBuyer, model.RoleAdmin)
	shopOnly := r.authMiddleware.RequireRole(model.RoleShop)
	anyRole := r.authMiddleware.RequireRole(model.RoleBuyer, model.RoleShop, model.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(r.authMiddleware.Authenticate())
	{
		buyer := v1.Group("/buyer", buyerOnly)
		{
			buyer.POST("/assignments", r.allocationController.PushPrivate)
			buyer.GET("/assignments", r.allocationController.ListAssignments)
			buyer.POST("/listings", r.allocationController.PublishListing)
			buyer.GET("/listings", r.allocationController.ListListings)
			buyer.GET("/listings/:id", r.allocationController.GetListing)
			buyer.DELETE("/listings/:id", r.allocationController.WithdrawListing)
		}

		pool := v1.Group("/pool", shopOnly)
		{
			pool.GET("", r.poolController.ListPool)
			pool.POST("/:id/interest", r.poolController.ExpressInterest)
			pool.POST("/:id/confirm", r.poolController.ConfirmPublic)
		}

		shop := v1.Group("/shop", shopOnly)
		{
			shop.GET("/assignments", r.allocationController.ListShopAssignments)
			shop.GET("/quota", r.poolController.GetQuota)
		}

		assignments := v1.Group("/assignments")
		{
			assignments.GET("/:id", anyRole, r.allocationController.GetAssignment)
			assignments.POST("/:id/confirm", anyRole, r.allocationController.ConfirmPrivate)
			assignments.POST("/:id/abandon", anyRole, r.allocationController.Abandon)
			assignments.PUT("/:id/development", shopOnly, r.lifecycleController.Advance)
			assignments.POST("/:id/spu", shopOnly, r.lifecycleController.AttachSpu)
		}

		v1.GET("/events", anyRole, r.eventController.ListEvents)
		v1.GET("/ws/events", anyRole, r.eventController.Stream)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
