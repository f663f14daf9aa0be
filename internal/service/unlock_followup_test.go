package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fortuna/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockFollowUper is a mock for the post-unlock suggestion hook.
type MockFollowUper struct {
	mock.Mock
}

func (m *MockFollowUper) FollowUp(ctx context.Context, userID string, res *models.GeneratedResult) error {
	args := m.Called(ctx, userID, res)
	return args.Error(0)
}

func TestUnlockSwallowsFollowUpFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fund(t, "u1", 1000)
	res := env.lockedResult(t, "u1")

	follow := new(MockFollowUper)
	follow.On("FollowUp", mock.Anything, "u1", mock.MatchedBy(func(r *models.GeneratedResult) bool {
		return r.ID == res.ID && r.Unlocked
	})).Return(errors.New("generation down")).Once()

	svc := NewUnlockService(env.db, env.results, env.points, env.limits, follow, env.pub, env.clock, testUnlockCost, time.Second, zap.NewNop())
	out, err := svc.Unlock(ctx, "u1", res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.NewBalance)

	_, err = svc.Unlock(ctx, "u1", res.ID)
	require.NoError(t, err)
	svc.Wait()
	follow.AssertExpectations(t)
}

func TestUnlockSkipsFollowUpWhenUnpaid(t *testing.T) {
	env := newTestEnv(t)
	res := env.lockedResult(t, "u1")

	follow := new(MockFollowUper)
	svc := NewUnlockService(env.db, env.results, env.points, env.limits, follow, env.pub, env.clock, testUnlockCost, time.Second, zap.NewNop())
	_, err := svc.Unlock(context.Background(), "u1", res.ID)
	require.Error(t, err)
	follow.AssertNotCalled(t, "FollowUp", mock.Anything, mock.Anything, mock.Anything)
}

// stallingFollowUper blocks until its context ends, like a hung generation API.
type stallingFollowUper struct {
	started chan struct{}
	ended   chan error
}

func (f *stallingFollowUper) FollowUp(ctx context.Context, userID string, res *models.GeneratedResult) error {
	close(f.started)
	<-ctx.Done()
	f.ended <- ctx.Err()
	return ctx.Err()
}

func TestUnlockReturnsWhileFollowUpStalls(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "u1", 1000)
	res := env.lockedResult(t, "u1")
	for i := 0; i < 3; i++ {
		_, err := env.chat.SendMessage(context.Background(), "u1", "stella", "hi")
		require.NoError(t, err)
	}

	follow := &stallingFollowUper{started: make(chan struct{}), ended: make(chan error, 1)}
	svc := NewUnlockService(env.db, env.results, env.points, env.limits, follow, env.pub, env.clock, testUnlockCost, 200*time.Millisecond, zap.NewNop())

	type result struct {
		out *UnlockOutcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := svc.Unlock(context.Background(), "u1", res.ID)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "A door opens in spring.", r.out.FullText)
		assert.Equal(t, int64(0), r.out.NewBalance)
	case <-time.After(2 * time.Second):
		t.Fatal("unlock blocked on the follow-up suggestion")
	}

	select {
	case <-follow.started:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up never started")
	}
	select {
	case err := <-follow.ended:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up was not bounded by its timeout")
	}
	svc.Wait()

	status, err := env.limits.CheckLimit(context.Background(), "u1", "stella")
	require.NoError(t, err)
	assert.True(t, status.CanSend, "limit reset still happens before the response")
}
