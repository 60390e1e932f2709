package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{"nil", nil, "push", InternalServerError},
		{"record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), "get listing", ResourceNotFound},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, "confirm", InternalConflict},
		{"duplicate intent", errors.New(`duplicate key value violates unique constraint "idx_listing_intent_shop"`), "interest", ListingDuplicateInterest},
		{"duplicate other", errors.New("UNIQUE constraint failed: shops.id"), "seed", ResourceAlreadyExists},
		{"unknown shop", errors.New(`insert violates foreign key constraint "fk_shops_assignments" on shop_id`), "push", ShopNotFound},
		{"not null", errors.New("NOT NULL constraint failed: public_style_listings.name"), "publish", ValidationRequired},
		{"connection", errors.New("dial tcp: connection refused"), "list", InternalDatabaseError},
		{"unknown", errors.New("boom"), "advance", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, ParseError(tt.err, tt.context).Code)
		})
	}
}

func TestParseError_Messages(t *testing.T) {
	assert.Equal(t, "공개 스타일을 찾을 수 없습니다", ParseError(gorm.ErrRecordNotFound, "get listing").Message)
	assert.Equal(t, "배정된 스타일을 찾을 수 없습니다", ParseError(gorm.ErrRecordNotFound, "get assignment").Message)
	assert.Equal(t, "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요", ParseError(errors.New("x"), "publish listing").Message)
	assert.Equal(t, "처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요", ParseError(errors.New("x"), "confirm").Message)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsRetryable(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.True(t, IsRetryable(errors.New("ERROR: could not serialize access due to concurrent update")))
	assert.False(t, IsRetryable(errors.New("syntax error")))
}
