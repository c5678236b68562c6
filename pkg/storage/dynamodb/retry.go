package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
)

// withTxTimeout derives a context that bounds a single transactional
// operation, including its internal retries.
func (s *Store) withTxTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.TxTimeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// conditionFailedAt reports whether a cancelled transaction failed because the
// item at index i did not pass its condition expression.
func conditionFailedAt(err error, i int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	if i >= len(tce.CancellationReasons) {
		return false
	}
	reason := tce.CancellationReasons[i]
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}

// isTransientConflict reports whether err represents contention that a
// re-read and retry can resolve.
func isTransientConflict(err error) bool {
	var conflict *types.TransactionConflictException
	if errors.As(err, &conflict) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			if *reason.Code == "TransactionConflict" || *reason.Code == "ThrottlingError" {
				return true
			}
		}
	}
	return false
}

// backoff sleeps before the next retry attempt.
func backoff(attempt int) {
	time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
}

// asStoreErr maps low-level commit failures onto the storage taxonomy.
func asStoreErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return storage.ErrTransactionTimeout
	}
	return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
}
