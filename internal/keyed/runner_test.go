package keyed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDoReturnsValue(t *testing.T) {
	r := NewRunner[string]()
	defer r.Close()

	v, err := r.Do(context.Background(), "farm-1", func(ctx context.Context) (string, error) {
		return "ndvi", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ndvi", v)

	latest, ok := r.Latest("farm-1")
	require.True(t, ok)
	assert.Equal(t, "ndvi", latest.Value)
	assert.False(t, r.Pending("farm-1"))

	_, err = r.Do(context.Background(), "farm-1", func(ctx context.Context) (string, error) {
		return "", errors.New("provider down")
	})
	assert.EqualError(t, err, "provider down")
	latest, _ = r.Latest("farm-1")
	assert.Error(t, latest.Err)
}

func TestNewerTaskSupersedesOlder(t *testing.T) {
	r := NewRunner[int]()
	defer r.Close()

	started := make(chan struct{})
	var (
		wg       sync.WaitGroup
		firstErr error
		firstCtx error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = r.Do(context.Background(), "maize,beans", func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			firstCtx = ctx.Err()
			// 被取代后晚到的结果
			return 1, nil
		})
	}()

	<-started
	v, err := r.Do(context.Background(), "maize,beans", func(ctx context.Context) (int, error) {
		return 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	wg.Wait()
	assert.ErrorIs(t, firstErr, ErrSuperseded)
	assert.ErrorIs(t, firstCtx, context.Canceled)

	latest, ok := r.Latest("maize,beans")
	require.True(t, ok)
	assert.Equal(t, 2, latest.Value)
}

func TestKeysAreIndependent(t *testing.T) {
	r := NewRunner[string]()
	defer r.Close()

	block := make(chan struct{})
	r.Go("farm-a", func(ctx context.Context) (string, error) {
		<-block
		return "a", nil
	})
	r.Go("farm-b", func(ctx context.Context) (string, error) {
		return "b", nil
	})

	require.Eventually(t, func() bool {
		_, ok := r.Latest("farm-b")
		return ok
	}, time.Second, time.Millisecond)
	assert.True(t, r.Pending("farm-a"))

	close(block)
	r.Wait()

	a, ok := r.Latest("farm-a")
	require.True(t, ok)
	assert.Equal(t, "a", a.Value)
}

func TestGoLateResultIsDiscarded(t *testing.T) {
	r := NewRunner[string]()
	defer r.Close()

	release := make(chan struct{})
	r.Go("farm-1", func(ctx context.Context) (string, error) {
		<-release
		return "stale", nil
	})
	r.Go("farm-1", func(ctx context.Context) (string, error) {
		return "fresh", nil
	})

	require.Eventually(t, func() bool {
		latest, ok := r.Latest("farm-1")
		return ok && latest.Value == "fresh"
	}, time.Second, time.Millisecond)

	close(release)
	r.Wait()

	latest, _ := r.Latest("farm-1")
	assert.Equal(t, "fresh", latest.Value)
}

func TestCloseCancelsRunningTasks(t *testing.T) {
	r := NewRunner[struct{}]()

	cancelled := make(chan error, 1)
	r.Go("farm-1", func(ctx context.Context) (struct{}, error) {
		<-ctx.Done()
		cancelled <- ctx.Err()
		return struct{}{}, ctx.Err()
	})

	r.Close()
	assert.ErrorIs(t, <-cancelled, context.Canceled)
}
