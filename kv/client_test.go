package kv_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heetch/kvsink/kv"
)

func TestAsyncResolves(t *testing.T) {
	h := kv.Async(context.Background(), func(context.Context) kv.Result {
		return kv.OK([]byte("v"))
	})

	res := h.Wait(context.Background())
	require.Equal(t, kv.ResultOK, res.Status)
	require.Equal(t, []byte("v"), res.Value)
}

// Wait returns only once the operation has, even when its own context
// is done first.
func TestAsyncWaitsForOperation(t *testing.T) {
	var finished int32
	h := kv.Async(context.Background(), func(context.Context) kv.Result {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
		return kv.Failed(context.DeadlineExceeded)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.Wait(ctx)
	require.Equal(t, kv.ResultTimeout, res.Status)
	require.Equal(t, context.Canceled, res.Err)
	require.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

func TestAsyncLateSuccess(t *testing.T) {
	h := kv.Async(context.Background(), func(context.Context) kv.Result {
		time.Sleep(10 * time.Millisecond)
		return kv.OK([]byte("v"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.Wait(ctx)
	require.Equal(t, kv.ResultOK, res.Status)
	require.Equal(t, []byte("v"), res.Value)
}
