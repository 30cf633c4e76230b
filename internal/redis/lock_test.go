package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLockServer answers the commands LockStore sends, without a network.
type fakeLockServer struct {
	mu   sync.Mutex
	keys map[string]string
}

func (f *fakeLockServer) DialHook(next redis.DialHook) redis.DialHook { return next }

func (f *fakeLockServer) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeLockServer) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		args := cmd.Args()
		switch strings.ToLower(cmd.Name()) {
		case "set":
			key, value := fmt.Sprint(args[1]), fmt.Sprint(args[2])
			_, held := f.keys[key]
			if !held {
				f.keys[key] = value
			}
			cmd.(*redis.BoolCmd).SetVal(!held)
		case "evalsha", "eval":
			// eval(sha) script numkeys key token
			key, token := fmt.Sprint(args[3]), fmt.Sprint(args[4])
			var deleted int64
			if f.keys[key] == token {
				delete(f.keys, key)
				deleted = 1
			}
			cmd.(*redis.Cmd).SetVal(deleted)
		default:
			return fmt.Errorf("unexpected command %q", cmd.Name())
		}
		return nil
	}
}

func newFakeLockStore(t *testing.T) (*LockStore, *fakeLockServer) {
	t.Helper()
	server := &fakeLockServer{keys: make(map[string]string)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(server)
	t.Cleanup(func() { _ = client.Close() })
	return NewLockStore(client), server
}

func TestLockStore_ReleaseOnlyByOwner(t *testing.T) {
	ctx := context.Background()
	store, server := newFakeLockStore(t)

	token, ok, err := store.AcquireLeadLock(ctx, "GW12AB34CD", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)
	assert.Equal(t, token, server.keys["lock:lead:GW12AB34CD"])

	other, ok, err := store.AcquireLeadLock(ctx, "GW12AB34CD", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, other)

	require.NoError(t, store.ReleaseLeadLock(ctx, "GW12AB34CD", "stale-token"))
	assert.Equal(t, token, server.keys["lock:lead:GW12AB34CD"], "stale token must not release")

	require.NoError(t, store.ReleaseLeadLock(ctx, "GW12AB34CD", token))
	assert.NotContains(t, server.keys, "lock:lead:GW12AB34CD")
}

func TestLockStore_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store, _ := newFakeLockStore(t)

	first, ok, err := store.AcquireLeadLock(ctx, "GW00000001", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := store.AcquireLeadLock(ctx, "GW00000002", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NotEqual(t, first, second)
}
