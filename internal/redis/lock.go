package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's token,
// so a holder whose TTL ran out cannot free a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func leadLockKey(trackingID string) string {
	return fmt.Sprintf("lock:lead:%s", trackingID)
}

// AcquireLeadLock attempts to acquire the progress lock of a lead.
// On success it returns the owner token that ReleaseLeadLock expects;
// ok is false if the lock is already held.
func (s *LockStore) AcquireLeadLock(ctx context.Context, trackingID string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = s.client.SetNX(ctx, leadLockKey(trackingID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// ReleaseLeadLock releases the progress lock of a lead if token still owns it.
// Releasing a lock that expired or passed to another owner is a no-op.
func (s *LockStore) ReleaseLeadLock(ctx context.Context, trackingID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{leadLockKey(trackingID)}, token).Err()
}
