package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("bh:idempotency:%s:%s", scope, id)
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestNewIdempotencyGuard_Validation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "payment-events")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(newMemoryStore(), -time.Hour, "payment-events")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(newMemoryStore(), time.Hour, "")
	require.Error(t, err)
}

func TestCheckAndMark(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-events")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_2")
	require.NoError(t, err)
	assert.False(t, seen, "marks are scoped per event id")
}

func TestCheckAndMark_EmptyEventID(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "payment-events")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "")
	require.Error(t, err)
}

func TestCheckAndMark_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.setErr = errors.New("redis down")
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-events")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-events")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.NoError(t, guard.Delete(context.Background(), "evt_1"))

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "deleted mark must allow reprocessing")
}
