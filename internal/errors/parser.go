package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError 저장소 에러를 사용자에게 전달할 코드와 메시지로 변환
// 도메인 에러는 controller에서 먼저 처리하고, 나머지만 이 함수로 넘어옴
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	if IsRetryable(err) {
		return ErrorInfo{
			Code:    InternalConflict,
			Message: "다른 요청과 동시에 처리되어 실패했습니다. 다시 시도해주세요",
		}
	}

	// Unique constraint violation (23505)
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		if strings.Contains(errLower, "listing_intent") {
			return ErrorInfo{Code: ListingDuplicateInterest, Message: "이미 관심을 표시한 스타일입니다"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "이미 존재하는 데이터입니다"}
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errLower, "foreign key constraint") {
		if strings.Contains(errLower, "shop_id") || strings.Contains(errLower, "fk_shops") {
			return ErrorInfo{Code: ShopNotFound, Message: "존재하지 않는 공장입니다"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "참조하는 데이터를 찾을 수 없습니다"}
	}

	// Not null constraint violation (23502)
	if strings.Contains(errLower, "null value") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "필수 항목이 누락되었습니다"}
	}

	if strings.Contains(errLower, "connection refused") || strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "데이터베이스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "listing") || strings.Contains(contextLower, "pool") {
		return "공개 스타일을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "assignment") || strings.Contains(contextLower, "style") {
		return "배정된 스타일을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "shop") {
		return "공장을 찾을 수 없습니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "publish") || strings.Contains(contextLower, "push") {
		return "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "confirm") || strings.Contains(contextLower, "advance") {
		return "처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}

// ParseAndRespond 에러를 파싱하여 응답 반환
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
