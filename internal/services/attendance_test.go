package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock returns strictly increasing instants starting at start.
func clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

type attendanceFixture struct {
	store    *testutil.ConversationStore
	gateway  *testutil.Gateway
	notifier *testutil.Notifier
	service  *services.AttendanceService
}

func newAttendance(t *testing.T) *attendanceFixture {
	t.Helper()
	f := &attendanceFixture{
		store:    testutil.NewConversationStore(),
		gateway:  &testutil.Gateway{},
		notifier: &testutil.Notifier{},
	}
	f.service = services.NewAttendanceService(f.store, f.gateway, f.notifier, "")
	f.service.SetClock(clock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	return f
}

func TestModeDefaultsToIA(t *testing.T) {
	f := newAttendance(t)

	mode, err := f.service.Mode(context.Background(), "+15550000")
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, mode)
}

func TestModeTurnWithoutModeIsIA(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	require.NoError(t, f.store.Append(ctx, &models.Turn{Phone: "+1", Role: models.RoleUser, Message: "oi"}))

	mode, err := f.service.Mode(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, mode)
}

func TestModeLastWriteWins(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	sequence := []struct {
		offset time.Duration
		mode   string
	}{
		{0, models.ModeIA},
		{3 * time.Minute, models.ModeHuman},
		{time.Minute, models.ModeIA},
	}
	for _, step := range sequence {
		require.NoError(t, f.store.Append(ctx, &models.Turn{
			Phone: "+1", Role: models.RoleUser, Message: "x", Mode: step.mode, Timestamp: base.Add(step.offset),
		}))
	}

	mode, err := f.service.Mode(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeHuman, mode, "the turn with the largest timestamp decides")
}

func TestTransferAppendsHumanTurn(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()

	changed, err := f.service.Transfer(ctx, "+1", "cliente pediu", models.SentByAdminPanel)
	require.NoError(t, err)
	assert.True(t, changed)

	turns := f.store.Turns("+1")
	require.Len(t, turns, 1)
	assert.Equal(t, models.ModeHuman, turns[0].Mode)
	assert.Equal(t, models.RoleAssistant, turns[0].Role)
	assert.Equal(t, "cliente pediu", turns[0].TransferReason)
	require.NotNil(t, turns[0].TransferredAt)

	mode, err := f.service.Mode(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeHuman, mode)

	require.Len(t, f.gateway.Sent(), 1)
	assert.Equal(t, services.TransferNotice, f.gateway.Sent()[0].Message)
	assert.Len(t, f.notifier.Turns, 1)
}

func TestTransferWhenHumanIsNoop(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()

	_, err := f.service.Transfer(ctx, "+1", "a", models.SentByAdminPanel)
	require.NoError(t, err)
	changed, err := f.service.Transfer(ctx, "+1", "b", models.SentByAdminPanel)
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Len(t, f.store.Turns("+1"), 1)
}

func TestTransferNotifiesAttendant(t *testing.T) {
	f := newAttendance(t)
	service := services.NewAttendanceService(f.store, f.gateway, nil, "+19990000")

	_, err := service.Transfer(context.Background(), "+15551234", "urgente", models.SentByClient)
	require.NoError(t, err)

	sent := f.gateway.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "+19990000", sent[1].Phone)
	assert.Contains(t, sent[1].Message, "https://wa.me/15551234")
	assert.Contains(t, sent[1].Message, "urgente")
}

func TestTransferSucceedsWhenNoticeFails(t *testing.T) {
	f := newAttendance(t)
	f.gateway.Err = services.ErrGatewayUnavailable

	changed, err := f.service.Transfer(context.Background(), "+1", "x", models.SentByOperator)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, f.store.Turns("+1"), 1)
}

// Admin returns a phone with 5 human turns to IA.
func TestReturnToIAFlipsAllTurnsAndGreets(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.service.Record(ctx, &models.Turn{
			Phone: "+1", Role: models.RoleUser, Message: fmt.Sprintf("msg %d", i), Mode: models.ModeHuman,
		}))
	}

	result, err := f.service.ReturnToIA(ctx, "+1", models.SentByAdminPanel, true)
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.Updated)
	assert.True(t, result.GreetingSent)

	for _, turn := range f.store.Turns("+1") {
		assert.Equal(t, models.ModeIA, turn.Mode)
		assert.Equal(t, models.SentByAdminPanel, turn.ReturnedBy)
		assert.NotNil(t, turn.ReturnedAt)
		assert.Nil(t, turn.TransferredAt)
		assert.Empty(t, turn.TransferReason)
	}

	sent := f.gateway.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, testutil.SentMessage{Phone: "+1", Message: services.ReturnToIAGreeting}, sent[0])
}

func TestReturnToIAIsIdempotent(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	_, err := f.service.Transfer(ctx, "+1", "x", models.SentByAdminPanel)
	require.NoError(t, err)

	_, err = f.service.ReturnToIA(ctx, "+1", models.SentByAdminPanel, true)
	require.NoError(t, err)
	first := f.store.Turns("+1")

	_, err = f.service.ReturnToIA(ctx, "+1", models.SentByAdminPanel, true)
	require.NoError(t, err)
	second := f.store.Turns("+1")

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Mode, second[i].Mode)
		assert.Equal(t, first[i].TransferredAt, second[i].TransferredAt)
		assert.Equal(t, first[i].ReturnedBy, second[i].ReturnedBy)
	}
	mode, err := f.service.Mode(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, mode)
}

func TestReturnToIAGreetingFailureStillCommits(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	_, err := f.service.Transfer(ctx, "+1", "x", models.SentByAdminPanel)
	require.NoError(t, err)
	f.gateway.Err = services.ErrGatewayRejected

	result, err := f.service.ReturnToIA(ctx, "+1", models.SentByAdminPanel, true)
	require.NoError(t, err)
	assert.False(t, result.GreetingSent)
	assert.ErrorIs(t, result.GreetingErr, services.ErrGatewayRejected)

	mode, err := f.service.Mode(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, mode)
}

func TestSendAdminReplyPersistsAfterDelivery(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()

	turn, err := f.service.SendAdminReply(ctx, models.AdminReplyRequest{Phone: "+15551234", Message: "hello"})
	require.NoError(t, err)
	assert.False(t, turn.ID.IsZero())

	assert.Equal(t, []testutil.SentMessage{{Phone: "+15551234", Message: "hello"}}, f.gateway.Sent())
	turns := f.store.Turns("+15551234")
	require.Len(t, turns, 1)
	assert.Equal(t, models.RoleAssistant, turns[0].Role)
	assert.Equal(t, models.ModeHuman, turns[0].Mode)
	assert.Equal(t, models.SentByAdminPanel, turns[0].SentBy)
}

func TestSendAdminReplyGatewayFailurePersistsNothing(t *testing.T) {
	f := newAttendance(t)
	f.gateway.Err = services.ErrGatewayUnavailable

	_, err := f.service.SendAdminReply(context.Background(), models.AdminReplyRequest{Phone: "+1", Message: "hello"})
	require.ErrorIs(t, err, services.ErrGatewayUnavailable)
	assert.Empty(t, f.store.Turns("+1"))
}

func TestSendAdminReplyValidation(t *testing.T) {
	f := newAttendance(t)

	_, err := f.service.SendAdminReply(context.Background(), models.AdminReplyRequest{Phone: "+1"})
	var validation *models.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "message", validation.Field)
	assert.Empty(t, f.gateway.Sent())
}

func TestHistoryIsAscending(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []int{5, 1, 3, 1, 4} {
		require.NoError(t, f.store.Append(ctx, &models.Turn{
			Phone: "+1", Message: "x", Timestamp: base.Add(time.Duration(offset) * time.Minute),
		}))
	}

	turns, err := f.service.History(ctx, "+1")
	require.NoError(t, err)
	require.Len(t, turns, 5)
	for i := 1; i < len(turns); i++ {
		assert.False(t, turns[i].Timestamp.Before(turns[i-1].Timestamp))
	}
}

func TestAwaitingHumanBounded(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	for i := 0; i < services.AwaitingHumanLimit+20; i++ {
		_, err := f.service.Transfer(ctx, fmt.Sprintf("+1555%04d", i), "x", models.SentByAdminPanel)
		require.NoError(t, err)
	}

	conversations, err := f.service.AwaitingHuman(ctx)
	require.NoError(t, err)
	assert.Len(t, conversations, services.AwaitingHumanLimit)
	for i := 1; i < len(conversations); i++ {
		assert.False(t, conversations[i].TransferredAt.After(*conversations[i-1].TransferredAt))
	}
}

func TestResetHuman(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	for _, phone := range []string{"+1", "+2"} {
		_, err := f.service.Transfer(ctx, phone, "x", models.SentByAdminPanel)
		require.NoError(t, err)
	}
	require.NoError(t, f.service.Record(ctx, &models.Turn{Phone: "+3", Role: models.RoleUser, Message: "oi", Mode: models.ModeIA}))
	sentBefore := len(f.gateway.Sent())

	phones, err := f.service.ResetHuman(ctx, time.Time{}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"+1", "+2"}, phones)
	assert.Len(t, f.gateway.Sent(), sentBefore)

	for _, phone := range phones {
		mode, err := f.service.Mode(ctx, phone)
		require.NoError(t, err)
		assert.Equal(t, models.ModeIA, mode)
	}
}

func TestExportTranscript(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	require.NoError(t, f.service.Record(ctx, &models.Turn{Phone: "+1 555", Role: models.RoleUser, Message: "oi"}))
	store := &testutil.ObjectStore{}

	url, err := f.service.ExportTranscript(ctx, store, "+1 555")
	require.NoError(t, err)
	assert.Contains(t, url, "conversas/1555/")
	require.Len(t, store.Objects, 1)

	_, err = f.service.ExportTranscript(ctx, nil, "+1 555")
	assert.ErrorIs(t, err, services.ErrStorageNotConfigured)

	_, err = f.service.ExportTranscript(ctx, store, "+9")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestModeOf(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()

	info, err := f.service.ModeOf(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, info.Mode)
	assert.False(t, info.Known)

	_, err = f.service.Transfer(ctx, "+1", "urgente", models.SentByAdminPanel)
	require.NoError(t, err)
	require.NoError(t, f.service.Record(ctx, &models.Turn{Phone: "+1", Role: models.RoleUser, Message: "oi", Mode: models.ModeHuman}))

	info, err = f.service.ModeOf(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeHuman, info.Mode)
	assert.True(t, info.Known)
	require.NotNil(t, info.TransferredAt)
	assert.Equal(t, "urgente", info.TransferReason)
}

func TestRecordIfModeSkipsAfterTransfer(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()
	_, err := f.service.Transfer(ctx, "+1", "x", models.SentByAdminPanel)
	require.NoError(t, err)

	written, err := f.service.RecordIfMode(ctx, &models.Turn{Phone: "+1", Role: models.RoleAssistant, Message: "tarde demais", Mode: models.ModeIA}, models.ModeIA)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Len(t, f.store.Turns("+1"), 1)
}

func TestRecordInboundUsesCurrentMode(t *testing.T) {
	f := newAttendance(t)
	ctx := context.Background()

	mode, err := f.service.RecordInbound(ctx, &models.Turn{Phone: "+1", Role: models.RoleUser, Message: "oi"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, mode)

	_, err = f.service.Transfer(ctx, "+1", "x", models.SentByAdminPanel)
	require.NoError(t, err)
	mode, err = f.service.RecordInbound(ctx, &models.Turn{Phone: "+1", Role: models.RoleUser, Message: "alô"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeHuman, mode)

	turns := f.store.Turns("+1")
	require.Len(t, turns, 3)
	assert.Equal(t, models.ModeIA, turns[0].Mode)
	assert.Equal(t, models.ModeHuman, turns[2].Mode)
}

// Concurrent transfers of one phone append a single transfer turn.
func TestConcurrentTransfersAppendOnce(t *testing.T) {
	store := testutil.NewConversationStore()
	service := services.NewAttendanceService(store, &testutil.Gateway{}, nil, "")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	changed := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := service.Transfer(ctx, "+1", "x", models.SentByAdminPanel)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changed)
	assert.Len(t, store.Turns("+1"), 1)
}
