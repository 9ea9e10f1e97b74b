package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_OrderAndIsolation(t *testing.T) {
	boom := errors.New("boom")

	out := Run(context.Background(), Runner{}, 4, func(ctx context.Context, i int) (int, error) {
		// Later indices finish first.
		time.Sleep(time.Duration(4-i) * 5 * time.Millisecond)
		if i == 1 {
			return 0, boom
		}
		return i * 10, nil
	})

	require.Len(t, out, 4)
	for i, o := range out {
		assert.Equal(t, i, o.Index)
	}
	assert.ErrorIs(t, out[1].Err, boom)
	assert.False(t, out[1].OK())
	assert.True(t, out[2].OK())
	assert.Equal(t, []int{0, 20, 30}, Succeeded(out))
}

func TestRun_SiblingsNotCancelled(t *testing.T) {
	out := Run(context.Background(), Runner{}, 3, func(ctx context.Context, i int) (string, error) {
		if i == 0 {
			return "", errors.New("fast failure")
		}
		select {
		case <-time.After(20 * time.Millisecond):
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	assert.Error(t, out[0].Err)
	assert.Equal(t, "done", out[1].Value)
	assert.Equal(t, "done", out[2].Value)
}

func TestRun_Timeout(t *testing.T) {
	out := Run(context.Background(), Runner{Timeout: 10 * time.Millisecond}, 2, func(ctx context.Context, i int) (int, error) {
		if i == 0 {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 1, nil
	})

	assert.ErrorIs(t, out[0].Err, context.DeadlineExceeded)
	assert.NoError(t, out[1].Err)
}

func TestRun_Concurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	Run(context.Background(), Runner{Concurrency: 2}, 6, func(ctx context.Context, i int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_Panic(t *testing.T) {
	out := Run(context.Background(), Runner{}, 2, func(ctx context.Context, i int) (int, error) {
		if i == 1 {
			panic("bad task")
		}
		return 7, nil
	})

	assert.Equal(t, 7, out[0].Value)
	require.Error(t, out[1].Err)
	assert.Contains(t, out[1].Err.Error(), "panicked")
}

func TestRun_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	out := Run(ctx, Runner{}, 3, func(ctx context.Context, i int) (int, error) {
		calls.Add(1)
		return i, nil
	})

	assert.Zero(t, calls.Load())
	for _, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestRun_Empty(t *testing.T) {
	assert.Nil(t, Run(context.Background(), Runner{}, 0, func(ctx context.Context, i int) (int, error) {
		return i, nil
	}))
}
