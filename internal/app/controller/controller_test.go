package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	apperrors "github.com/havaxeban925-ux/scm-backend/internal/errors"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
	ws "github.com/havaxeban925-ux/scm-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type controllerFixture struct {
	db         *gorm.DB
	router     *gin.Engine
	allocation *AllocationController
	pool       *PoolController
	lifecycle  *LifecycleController
	events     *EventController
}

func setupControllerTest(t *testing.T) *controllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cfg := config.DefaultAllocation()
	repos := repository.NewRepositories(testDB)
	publisher := &events.Recorder{}
	allocationService := service.NewAllocationService(testDB, repos, publisher, cfg)
	lifecycleService := service.NewLifecycleService(testDB, repos, publisher, cfg)
	catalogService := service.NewCatalogService(testDB, repos, cfg)

	for _, id := range []string{"shop-a", "shop-b"} {
		require.NoError(t, testDB.Create(&model.Shop{ID: id, Name: "공장 " + id, ActivePublicIntentCap: 5}).Error)
	}

	gin.SetMode(gin.TestMode)
	return &controllerFixture{
		db:         testDB,
		router:     gin.New(),
		allocation: NewAllocationController(allocationService, catalogService),
		pool:       NewPoolController(allocationService, catalogService),
		lifecycle:  NewLifecycleController(lifecycleService),
		events:     NewEventController(catalogService, ws.NewHub(), nil),
	}
}

// Helper function to set the actor in context
func withActor(actor model.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

var (
	buyer = model.Actor{Subject: "buyer-1", Role: model.RoleBuyer}
	shopA = model.Actor{Subject: "user-a", Role: model.RoleShop, ShopID: "shop-a"}
)

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAllocationController_PushPrivate(t *testing.T) {
	f := setupControllerTest(t)
	f.router.POST("/assignments", withActor(buyer), f.allocation.PushPrivate)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "Missing name",
			body:       map[string]interface{}{"shop_ids": []string{"shop-a"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ValidationInvalidInput,
		},
		{
			name:       "No shops",
			body:       map[string]interface{}{"name": "셔츠", "shop_ids": []string{}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ValidationInvalidInput,
		},
		{
			name:       "Unknown shop",
			body:       map[string]interface{}{"name": "셔츠", "shop_ids": []string{"shop-a", "shop-x"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ShopInvalidTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(f.router, "POST", "/assignments", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}

	w := doJSON(f.router, "POST", "/assignments", map[string]interface{}{
		"name":     "셔츠",
		"shop_ids": []string{"shop-a", "shop-b", "shop-a"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Assignments []model.PrivateStyleAssignment `json:"assignments"`
		Count       int                            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 2, created.Count)
	assert.Equal(t, model.AssignmentNew, created.Assignments[0].AssignmentStatus)
}

func TestAllocationController_PublishAndList(t *testing.T) {
	f := setupControllerTest(t)
	f.router.POST("/listings", withActor(buyer), f.allocation.PublishListing)
	f.router.GET("/listings", withActor(buyer), f.allocation.ListListings)
	f.router.GET("/listings/:id", withActor(buyer), f.allocation.GetListing)
	f.router.DELETE("/listings/:id", withActor(buyer), f.allocation.WithdrawListing)

	w := doJSON(f.router, "POST", "/listings", map[string]interface{}{"name": "원피스", "max_intents": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ListingInvalidCapacity, errorCode(t, w))

	w = doJSON(f.router, "POST", "/listings", map[string]interface{}{"name": "원피스"})
	require.Equal(t, http.StatusCreated, w.Code)
	var published struct {
		Listing model.PublicStyleListing `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &published))
	assert.Equal(t, 2, published.Listing.MaxIntents, "platform default capacity")

	w = doJSON(f.router, "GET", "/listings?status=open", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), published.Listing.ID)

	w = doJSON(f.router, "GET", "/listings?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router, "DELETE", "/listings/"+published.Listing.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, "GET", "/listings?status=open", nil)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = doJSON(f.router, "DELETE", "/listings/"+published.Listing.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ListingNotFound, errorCode(t, w))

	w = doJSON(f.router, "GET", "/listings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPoolController_InterestAndConfirm(t *testing.T) {
	f := setupControllerTest(t)
	f.router.POST("/listings", withActor(buyer), f.allocation.PublishListing)
	f.router.POST("/pool/:id/interest", withActor(shopA), f.pool.ExpressInterest)
	f.router.POST("/pool/:id/confirm", withActor(shopA), f.pool.ConfirmPublic)
	f.router.GET("/quota", withActor(shopA), f.pool.GetQuota)

	w := doJSON(f.router, "POST", "/listings", map[string]interface{}{"name": "코트", "max_intents": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	var published struct {
		Listing model.PublicStyleListing `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &published))
	id := published.Listing.ID

	w = doJSON(f.router, "POST", "/pool/"+id+"/interest", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, "POST", "/pool/"+id+"/interest", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ListingDuplicateInterest, errorCode(t, w))

	w = doJSON(f.router, "POST", "/pool/"+id+"/confirm", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(f.router, "POST", "/pool/"+id+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.StyleAlreadyConfirmed, errorCode(t, w))

	w = doJSON(f.router, "GET", "/quota", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"quota":{"shop_id":"shop-a","active_count":1,"cap":5,"remaining":4}}`, w.Body.String())
}

func TestLifecycleController_Errors(t *testing.T) {
	f := setupControllerTest(t)
	f.router.POST("/assignments", withActor(buyer), f.allocation.PushPrivate)
	f.router.POST("/assignments/:id/confirm", withActor(shopA), f.allocation.ConfirmPrivate)
	f.router.POST("/assignments/:id/abandon", withActor(shopA), f.allocation.Abandon)
	f.router.PUT("/assignments/:id/development", withActor(shopA), f.lifecycle.Advance)
	f.router.POST("/assignments/:id/spu", withActor(shopA), f.lifecycle.AttachSpu)

	w := doJSON(f.router, "POST", "/assignments", map[string]interface{}{"name": "바지", "shop_ids": []string{"shop-a"}})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Assignments []model.PrivateStyleAssignment `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Assignments[0].ID
	path := fmt.Sprintf("/assignments/%s", id)

	w = doJSON(f.router, "PUT", path+"/development", map[string]string{"status": "pattern"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.StyleInvalidTransition, errorCode(t, w))

	w = doJSON(f.router, "POST", path+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, "POST", path+"/confirm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.StyleNotPending, errorCode(t, w))

	w = doJSON(f.router, "PUT", path+"/development", map[string]string{"status": "success"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.StyleMissingSpu, errorCode(t, w))

	w = doJSON(f.router, "POST", path+"/spu", map[string]interface{}{"spu_codes": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router, "POST", path+"/spu", map[string]interface{}{"spu_codes": []string{"SPU-1"}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, "POST", path+"/abandon", map[string]string{"reason": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.StyleInvalidReason, errorCode(t, w))

	w = doJSON(f.router, "PUT", path+"/development", map[string]string{"status": "success"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"assignment_status":"completed"`)

	w = doJSON(f.router, "PUT", "/assignments/missing/development", map[string]string{"status": "ok"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.StyleNotFound, errorCode(t, w))
}

func TestEventController_ListEvents(t *testing.T) {
	f := setupControllerTest(t)
	f.router.POST("/listings", withActor(buyer), f.allocation.PublishListing)
	f.router.GET("/events", withActor(shopA), f.events.ListEvents)

	w := doJSON(f.router, "POST", "/listings", map[string]interface{}{"name": "재킷"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(f.router, "GET", "/events", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(model.EventListingPublished))

	w = doJSON(f.router, "GET", "/events?after=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidID, errorCode(t, w))
}

func TestRespondError_RetryableAndUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), "confirm listing", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.InternalConflict, errorCode(t, w))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, fmt.Errorf("disk on fire"), "publish listing", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.InternalServerError, errorCode(t, w))
}
