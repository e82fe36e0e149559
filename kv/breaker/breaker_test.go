package breaker_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/heetch/kvsink/kv"
	"github.com/heetch/kvsink/kv/breaker"
	"github.com/heetch/kvsink/kv/kvtest"
)

func TestClosedBreakerPassesThrough(t *testing.T) {
	next := kvtest.New(kv.TimedOut(errors.New("timed out")), kv.OK([]byte("true")))
	w, err := kv.NewWriter(breaker.Wrap(next, breaker.Settings{Name: "kv"}), kv.Durability{}, kv.DefaultRetryPolicy())
	require.NoError(t, err)

	out, err := w.Write(context.Background(), kv.Request{Key: "k", Value: []byte("v")})
	require.NoError(t, err)
	require.Equal(t, []byte("true"), out.Value)
	require.Equal(t, 2, next.WaitCount())
}

// once open, the breaker fails writes without calling the backend and
// the writer does not retry them.
func TestOpenBreaker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	next := kvtest.New(kv.Failed(errors.New("node down")))
	c := breaker.Wrap(next, breaker.Settings{
		Name:                "kv",
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Hour,
		Logger:              zap.New(core),
	})
	w, err := kv.NewWriter(c, kv.Durability{}, kv.DefaultRetryPolicy())
	require.NoError(t, err)

	req := kv.Request{Key: "k", Value: []byte("v")}
	for i := 0; i < 2; i++ {
		_, err := w.Write(context.Background(), req)
		require.True(t, errors.Is(err, kv.ErrBackendFailure))
	}
	require.Equal(t, gobreaker.StateOpen, c.State())
	require.Equal(t, 2, next.SetCount())
	require.Equal(t, 1, logs.FilterMessage("circuit breaker state changed").Len())

	_, err = w.Write(context.Background(), req)
	require.EqualError(t, err, `kv: backend failure after 1 attempt(s): breaker "kv" rejected operation: circuit breaker is open`)
	require.True(t, errors.Is(err, gobreaker.ErrOpenState))
	require.Equal(t, 2, next.SetCount())
}

// timeouts count as failures too.
func TestTimeoutsOpenBreaker(t *testing.T) {
	next := kvtest.New(kv.TimedOut(errors.New("timed out")))
	c := breaker.Wrap(next, breaker.Settings{ConsecutiveFailures: 3})
	w, err := kv.NewWriter(c, kv.Durability{}, kv.DefaultRetryPolicy())
	require.NoError(t, err)

	_, err = w.Write(context.Background(), kv.Request{Key: "k", Value: []byte("v")})
	require.True(t, errors.Is(err, kv.ErrRetryExhausted))
	require.Equal(t, gobreaker.StateOpen, c.State())
}
