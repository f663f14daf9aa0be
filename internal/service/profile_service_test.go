package service

import (
	"context"
	"testing"

	"fortuna/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProfileGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Empty(t, p.Nickname)

	p, err = env.profiles.Update(ctx, "u1", ProfileInput{Nickname: " Aoi ", BirthDate: "1990-04-12", BirthTime: "06:30"})
	require.NoError(t, err)
	assert.Equal(t, "Aoi", p.Nickname)
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, "1990-04-12", p.BirthDate.Format(domain.DateLayout))

	p, err = env.profiles.Update(ctx, "u1", ProfileInput{Nickname: "Aoi K"})
	require.NoError(t, err)
	assert.Equal(t, "Aoi K", p.Nickname)
	assert.Nil(t, p.BirthDate, "update replaces the whole profile")
}

func TestProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []ProfileInput{
		{BirthDate: "12/04/1990"},
		{BirthDate: "2999-01-01"},
		{BirthTime: "25:00"},
		{Gender: "a much too long gender value"},
	}
	for _, in := range cases {
		_, err := env.profiles.Update(context.Background(), "u1", in)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", in)
	}
}

func TestPointServiceAdjustAndBonus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewPointService(env.points, 300, zap.NewNop())

	bal, err := svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), bal)
	bal, err = svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), bal, "bonus is granted once")

	bal, err = svc.Adjust(ctx, "u1", -100, "refund correction", "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(200), bal)

	_, err = svc.Adjust(ctx, "u1", -1000, "", "admin")
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
	_, err = svc.Adjust(ctx, "", 10, "", "admin")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
