package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"fortuna/internal/domain"
	"fortuna/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReadingIsLockedUntilUnlocked(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fund(t, "u1", 1000)

	view, err := env.readings.CreateReading(ctx, "u1", "stella", "career")
	require.NoError(t, err)
	assert.Equal(t, "The Turning Wheel", view.Title)
	assert.Equal(t, "A change is already in motion.", view.Preview)
	assert.False(t, view.Unlocked)
	assert.Empty(t, view.FullText)

	body, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "Spring brings", "locked text never serializes")

	var teaser models.ChatMessage
	require.NoError(t, env.db.Where("result_id = ?", view.ID).Take(&teaser).Error)
	assert.True(t, strings.HasPrefix(teaser.Content, "The Turning Wheel"))
	assert.Equal(t, 1, env.pub.count(EventChatMessage))

	_, err = env.unlock.Unlock(ctx, "u1", view.ID)
	require.NoError(t, err)

	got, err := env.readings.GetResult(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring brings an offer you should accept.", got.FullText)

	_, err = env.readings.GetResult(ctx, "u2", view.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := env.readings.ListResults(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.True(t, list[0].Unlocked)
}

func TestCreateReadingUnknownCounterparty(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.readings.CreateReading(context.Background(), "u1", "nobody", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateReadingUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.gen.errs["reading"] = errors.New("503")
	_, err := env.readings.CreateReading(context.Background(), "u1", "stella", "love")
	assert.Error(t, err)

	var n int64
	require.NoError(t, env.db.Model(&models.GeneratedResult{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestReadingPromptIncludesProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.profiles.Update(ctx, "u1", ProfileInput{Nickname: "Aoi", BirthDate: "1990-04-12"})
	require.NoError(t, err)

	_, err = env.readings.CreateReading(ctx, "u1", "stella", "career")
	require.NoError(t, err)
	require.NotEmpty(t, env.gen.prompts)
	last := env.gen.prompts[len(env.gen.prompts)-1]
	assert.Contains(t, last, "You are Stella.")
	assert.Contains(t, last, "- Name: Aoi")
	assert.Contains(t, last, "## Reading topic\ncareer")
}
