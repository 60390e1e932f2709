package db

import (
	"context"
	"time"

	apperrors "github.com/havaxeban925-ux/scm-backend/internal/errors"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"gorm.io/gorm"
)

// DefaultTxAttempts bounds how often a transaction is replayed after contention.
const DefaultTxAttempts = 3

const retryBackoff = 20 * time.Millisecond

// RunInTx runs fn in a transaction with the default number of attempts.
func RunInTx(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	return RunInTxWithRetry(ctx, conn, DefaultTxAttempts, fn)
}

// RunInTxWithRetry runs fn in a transaction and replays the whole function when
// the store reports a serialization failure, a deadlock or a busy database.
// Any other error, including domain errors returned by fn, rolls back and is
// returned unchanged.
func RunInTxWithRetry(ctx context.Context, conn *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts <= 0 {
		attempts = DefaultTxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = conn.WithContext(ctx).Transaction(fn)
		if err == nil || !apperrors.IsRetryable(err) {
			return err
		}

		logger.Warn("Transaction conflict, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}
