package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 클라이언트는 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"  // 로그인 필요
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED" // 토큰 만료
	AuthTokenInvalid = "AUTH_TOKEN_INVALID" // 잘못된 토큰

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // 접근 권한 없음
	AuthzShopRequired = "AUTHZ_SHOP_REQUIRED" // 공장 계정 필요

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 공장 (SHOP_) ====================
	ShopNotFound      = "SHOP_NOT_FOUND"      // 등록되지 않은 공장
	ShopInvalidTarget = "SHOP_INVALID_TARGET" // 배정 대상 공장 오류

	// ==================== 스타일 배정 (STYLE_) ====================
	StyleNotFound          = "STYLE_NOT_FOUND"          // 배정 없음
	StyleNotPending        = "STYLE_NOT_PENDING"        // 확인 대기 상태 아님
	StyleInvalidTransition = "STYLE_INVALID_TRANSITION" // 허용되지 않는 상태 변경
	StyleMissingSpu        = "STYLE_MISSING_SPU"        // SPU 미등록
	StyleAlreadyConfirmed  = "STYLE_ALREADY_CONFIRMED"  // 이미 확정한 스타일
	StyleInvalidReason     = "STYLE_INVALID_REASON"     // 포기 사유 누락

	// ==================== 공개 풀 (LISTING_) ====================
	ListingNotFound          = "LISTING_NOT_FOUND"          // 공개 스타일 없음
	ListingInvalidCapacity   = "LISTING_INVALID_CAPACITY"   // 잘못된 모집 수
	ListingDuplicateInterest = "LISTING_DUPLICATE_INTEREST" // 이미 관심 표시함
	ListingCapacityExceeded  = "LISTING_CAPACITY_EXCEEDED"  // 모집 인원 초과

	// ==================== 쿼터 (QUOTA_) ====================
	QuotaExceeded = "QUOTA_EXCEEDED" // 공장 쿼터 초과

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalConflict      = "INTERNAL_CONFLICT"       // 동시 처리 충돌
)
