package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerStopsOnFirstExit(t *testing.T) {
	failure := errors.New("pump failed")
	r := NewRunner()
	r.Go(
		NamedRun("waiter", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		NamedRun("failing", RunFunc(func(ctx context.Context) error {
			return failure
		})),
	)
	err := r.Wait()
	require.ErrorIs(t, err, failure)
	require.EqualError(t, err, "failing: pump failed")
}

func TestNameOf(t *testing.T) {
	fn := RunFunc(func(context.Context) error { return nil })
	require.Equal(t, "radio", NameOf(NamedRun("radio", fn), "0"))
	require.Equal(t, "0", NameOf(fn, "0"))
}

func TestRunnerCanceledIsNotError(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	e1, e2 := errors.New("one"), errors.New("two")
	err := errs.Add(e1, nil, e2).Aggregate()
	require.Error(t, err)
	require.ErrorIs(t, err, e2)
	require.Equal(t, "Multiple errors:\none\ntwo", err.Error())
}

type closeRecorder struct {
	closed int
	ch     chan struct{}
}

func (c *closeRecorder) Close() error {
	if c.closed == 0 && c.ch != nil {
		close(c.ch)
	}
	c.closed++
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	var c closeRecorder
	err := RunWithContextCloser(context.Background(), &c, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, c.closed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c2 := closeRecorder{ch: make(chan struct{})}
	err = RunWithContextCloser(ctx, &c2, func() error {
		<-c2.ch
		return errors.New("closed")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, c2.closed)
}
