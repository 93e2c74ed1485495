package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/typewire"
)

type recHooks struct {
	mu       sync.Mutex
	heals    map[string]string
	rejected []string
}

func newRecHooks() *recHooks { return &recHooks{heals: make(map[string]string)} }

func (h *recHooks) SelfHeal(k, reason string) {
	h.mu.Lock()
	h.heals[k] = reason
	h.mu.Unlock()
}

func (h *recHooks) ProviderSetRejected(k string) {
	h.mu.Lock()
	h.rejected = append(h.rejected, k)
	h.mu.Unlock()
}

func (h *recHooks) SelfHealDeleteError(string, error) {}

// rejectingProvider refuses every write.
type rejectingProvider struct{ *memProvider }

func (rejectingProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return false, nil
}

func TestHooksSelfHealReasons(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	hooks := newRecHooks()
	s, err := New(Options{Namespace: "h", Provider: mp, Hooks: hooks})
	require.NoError(t, err)

	_, _ = mp.Set(ctx, s.storageKey("corrupt"), []byte("junk"), 1, 0)
	_, _, err = s.Get(ctx, "corrupt", typewire.Int())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "schema", "text", typewire.Str(), 0))
	_, _, err = s.Get(ctx, "schema", typewire.Int())
	require.NoError(t, err)

	require.Equal(t, map[string]string{
		"tw:h:corrupt": "corrupt",
		"tw:h:schema":  "schema_mismatch",
	}, hooks.heals)
}

func TestHooksProviderSetRejected(t *testing.T) {
	hooks := newRecHooks()
	s, err := New(Options{
		Namespace: "h",
		Provider:  rejectingProvider{newMemProvider()},
		Hooks:     hooks,
	})
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "k", int64(1), typewire.Int(), 0))
	require.Equal(t, []string{"tw:h:k"}, hooks.rejected)
}
