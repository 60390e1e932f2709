package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	apperrors "github.com/havaxeban925-ux/scm-backend/internal/errors"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
)

type domainErrorResponse struct {
	target  error
	status  int
	code    string
	message string
}

var domainErrorResponses = []domainErrorResponse{
	{service.ErrInvalidTarget, http.StatusBadRequest, apperrors.ShopInvalidTarget, "배정 대상 공장이 올바르지 않습니다"},
	{service.ErrInvalidCapacity, http.StatusBadRequest, apperrors.ListingInvalidCapacity, "모집 공장 수는 1 이상이어야 합니다"},
	{service.ErrInvalidReason, http.StatusBadRequest, apperrors.StyleInvalidReason, "포기 사유를 입력해주세요"},
	{service.ErrListingNotFound, http.StatusNotFound, apperrors.ListingNotFound, "공개 스타일을 찾을 수 없습니다"},
	{service.ErrAssignmentNotFound, http.StatusNotFound, apperrors.StyleNotFound, "배정된 스타일을 찾을 수 없습니다"},
	{service.ErrDuplicateInterest, http.StatusConflict, apperrors.ListingDuplicateInterest, "이미 관심을 표시한 스타일입니다"},
	{service.ErrAlreadyConfirmed, http.StatusConflict, apperrors.StyleAlreadyConfirmed, "이미 확정한 스타일입니다"},
	{service.ErrCapacityExceeded, http.StatusConflict, apperrors.ListingCapacityExceeded, "모집 인원이 마감되었습니다"},
	{service.ErrShopQuotaExceeded, http.StatusConflict, apperrors.QuotaExceeded, "진행 가능한 공개 스타일 수를 초과했습니다"},
	{service.ErrNotPending, http.StatusUnprocessableEntity, apperrors.StyleNotPending, "확인 대기 중인 스타일이 아닙니다"},
	{service.ErrInvalidTransition, http.StatusUnprocessableEntity, apperrors.StyleInvalidTransition, "허용되지 않는 상태 변경입니다"},
	{service.ErrMissingSpu, http.StatusUnprocessableEntity, apperrors.StyleMissingSpu, "SPU를 먼저 등록해주세요"},
}

// respondError writes the response for an error returned by a service call.
// Classified rejections keep their own code, everything else goes through ParseAndRespond.
func respondError(c *gin.Context, err error, operation string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["operation"] = operation

	for _, r := range domainErrorResponses {
		if errors.Is(err, r.target) {
			fields["error"] = err.Error()
			log.Warn("Request rejected", fields)
			apperrors.RespondWithError(c, r.status, r.code, r.message)
			return
		}
	}

	status := http.StatusInternalServerError
	if apperrors.IsRetryable(err) {
		status = http.StatusConflict
	}
	log.Error("Request failed", err, fields)
	apperrors.ParseAndRespond(c, status, err, operation)
}

// bindJSON binds the body and answers 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, "입력값이 올바르지 않습니다")
		return false
	}
	return true
}

// currentActor returns the authenticated actor or answers 401.
func currentActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return model.Actor{}, false
	}
	return actor, true
}
