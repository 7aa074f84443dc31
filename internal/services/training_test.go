package services_test

import (
	"context"
	"testing"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTraining(t *testing.T) (*services.TrainingService, *testutil.BotStore, *services.AttendanceService) {
	t.Helper()
	bots := testutil.NewBotStore()
	attendance := services.NewAttendanceService(testutil.NewConversationStore(), &testutil.Gateway{}, nil, "")
	training := services.NewTrainingService(bots, attendance, "Mia")
	training.SetClock(clock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	return training, bots, attendance
}

func TestTrainingSave(t *testing.T) {
	training, bots, _ := newTraining(t)
	ctx := context.Background()

	err := training.Save(ctx, models.BotTraining{SystemPrompt: "Seja sempre cordial com o cliente.", IsActive: true})
	assert.ErrorIs(t, err, models.ErrNotFound)

	bots.Put(models.BotProfile{Name: "Mia"})
	require.NoError(t, training.Save(ctx, models.BotTraining{SystemPrompt: "  Seja sempre cordial com o cliente.  ", IsActive: false}))

	profile, err := training.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Seja sempre cordial com o cliente.", profile.SystemPrompt)
	assert.False(t, profile.Active())
	assert.NotNil(t, profile.UpdatedAt)
	assert.Contains(t, services.SystemPrompt(profile), "Seja sempre cordial")
}

func TestTrainingSaveRejectsShortPrompt(t *testing.T) {
	training, bots, _ := newTraining(t)
	bots.Put(models.BotProfile{Name: "Mia"})

	err := training.Save(context.Background(), models.BotTraining{SystemPrompt: "curto"})
	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestTrainingStatusAndToggle(t *testing.T) {
	training, _, attendance := newTraining(t)
	ctx := context.Background()
	_, err := attendance.Transfer(ctx, "+1", "x", models.SentByAdminPanel)
	require.NoError(t, err)

	status, err := training.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.Equal(t, 1, status.AwaitingHumans)

	require.NoError(t, training.Toggle(ctx, false))
	status, err = training.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.NotNil(t, status.LastUpdate)
}
