package revalidate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNotifier_ListenDecodesSignals(t *testing.T) {
	client := setupRedis(t)
	n := NewNotifier(client, "reval", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Signal, 1)
	done := make(chan error, 1)
	go func() { done <- n.Listen(ctx, func(s Signal) { got <- s }) }()

	// wait for the subscription before publishing
	require.Eventually(t, func() bool {
		subs, err := client.PubSubNumSub(ctx, "reval").Result()
		return err == nil && subs["reval"] > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, n.Revalidate(ctx, ""))

	select {
	case s := <-got:
		assert.Equal(t, "/", s.Path, "empty path defaults to the root")
		assert.False(t, s.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no signal received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestNotifier_PublishFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err = NewNotifier(client, "reval", nil).Revalidate(context.Background(), "/")
	assert.Error(t, err)
}
