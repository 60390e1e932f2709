package model

// AssignmentOrigin tells how an assignment reached its shop.
type AssignmentOrigin string

const (
	OriginDirectPush AssignmentOrigin = "direct_push" // 바이어 직접 지정
	OriginFromPool   AssignmentOrigin = "from_pool"   // 공개 풀에서 확정
)

func (o AssignmentOrigin) Valid() bool {
	switch o {
	case OriginDirectPush, OriginFromPool:
		return true
	}
	return false
}

// AssignmentStatus is the allocation state of a private assignment.
type AssignmentStatus string

const (
	AssignmentNew        AssignmentStatus = "new"
	AssignmentLocked     AssignmentStatus = "locked"
	AssignmentDeveloping AssignmentStatus = "developing"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentAbandoned  AssignmentStatus = "abandoned"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentNew:        {AssignmentDeveloping, AssignmentAbandoned},
	AssignmentLocked:     {AssignmentDeveloping, AssignmentAbandoned},
	AssignmentDeveloping: {AssignmentCompleted, AssignmentAbandoned},
	AssignmentCompleted:  nil,
	AssignmentAbandoned:  nil,
}

func (s AssignmentStatus) Valid() bool {
	_, ok := assignmentTransitions[s]
	return ok
}

func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentCompleted || s == AssignmentAbandoned
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DevelopmentStatus is the production stage of an accepted assignment.
// The zero value means development has not started.
type DevelopmentStatus string

const (
	DevelopmentUndefined DevelopmentStatus = ""
	DevelopmentDrafting  DevelopmentStatus = "drafting"  // 초안 작성
	DevelopmentPattern   DevelopmentStatus = "pattern"   // 패턴/샘플 제작
	DevelopmentHelping   DevelopmentStatus = "helping"   // 샘플 검토 지원
	DevelopmentOK        DevelopmentStatus = "ok"        // 샘플 승인, SPU 등록 대기
	DevelopmentSuccess   DevelopmentStatus = "success"   // SPU 등록 완료
	DevelopmentAbandoned DevelopmentStatus = "abandoned" // 개발 포기
)

// developmentTransitions lists the forward moves allowed from each stage.
// Skipping ahead is allowed, moving back is not. Abandonment is handled
// separately since it is reachable from every non-terminal stage.
var developmentTransitions = map[DevelopmentStatus][]DevelopmentStatus{
	DevelopmentUndefined: {DevelopmentDrafting},
	DevelopmentDrafting:  {DevelopmentPattern, DevelopmentHelping, DevelopmentOK, DevelopmentSuccess},
	DevelopmentPattern:   {DevelopmentHelping, DevelopmentOK, DevelopmentSuccess},
	DevelopmentHelping:   {DevelopmentOK, DevelopmentSuccess},
	DevelopmentOK:        {DevelopmentSuccess},
	DevelopmentSuccess:   nil,
	DevelopmentAbandoned: nil,
}

func (s DevelopmentStatus) Valid() bool {
	_, ok := developmentTransitions[s]
	return ok
}

func (s DevelopmentStatus) IsTerminal() bool {
	return s == DevelopmentSuccess || s == DevelopmentAbandoned
}

// CanAdvanceTo reports whether next is a legal forward move from s.
func (s DevelopmentStatus) CanAdvanceTo(next DevelopmentStatus) bool {
	for _, allowed := range developmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RequiresSpu reports whether entering the stage needs a registered SPU.
func (s DevelopmentStatus) RequiresSpu() bool {
	return s == DevelopmentSuccess
}

// ListingStatus is the availability of a public listing.
type ListingStatus string

const (
	ListingOpen      ListingStatus = "open"
	ListingClosed    ListingStatus = "closed"    // 배정 완료 후 종료
	ListingWithdrawn ListingStatus = "withdrawn" // 바이어가 회수
)
