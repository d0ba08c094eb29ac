package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/dtsgroup/bizreg_backend/config"
)

// AcquireBatchLock serializes mutations per batch across instances.
// Two staff members editing the same batch still resolve last-write-wins;
// the lock only keeps a cascade delete from interleaving with a concurrent
// fan-out write. Returns a release func. With no redis configured this is
// a no-op so single-instance deployments work unchanged.
func AcquireBatchLock(ctx context.Context, batchId int, functionName string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("InspectionBatchLock:%d", batchId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(config.GetLogger(), "batchLock.go", functionName, "Could not obtain lock for batch", batchId, err)
		return nil, errors.New("batch is being modified by another request")
	} else if err != nil {
		config.LogError(config.GetLogger(), "batchLock.go", functionName, "Error obtaining lock for batch", batchId, err)
		return nil, err
	}

	return func() {
		_ = lock.Release(ctx)
	}, nil
}
