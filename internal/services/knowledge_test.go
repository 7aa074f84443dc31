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

type knowledgeFixture struct {
	suggestions *testutil.SuggestionStore
	bots        *testutil.BotStore
	service     *services.KnowledgeService
}

func newKnowledge(t *testing.T) *knowledgeFixture {
	t.Helper()
	f := &knowledgeFixture{
		suggestions: testutil.NewSuggestionStore(),
		bots:        testutil.NewBotStore(),
	}
	f.service = services.NewKnowledgeService(f.suggestions, f.bots, "Mia")
	f.service.SetClock(clock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	return f
}

func (f *knowledgeFixture) pending(t *testing.T, title, content string) *models.Suggestion {
	t.Helper()
	suggestion := &models.Suggestion{Title: title, Content: content, Status: models.SuggestionPending, CreatedAt: time.Now()}
	require.NoError(t, f.suggestions.Create(context.Background(), suggestion))
	return suggestion
}

func (f *knowledgeFixture) knowledgeBase(t *testing.T) []models.KnowledgeEntry {
	t.Helper()
	profile, err := f.bots.GetProfile(context.Background(), "Mia")
	if err != nil {
		return nil
	}
	return profile.KnowledgeBase
}

func TestApproveAddsKnowledgeEntry(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	suggestion := f.pending(t, "T", "C")

	require.NoError(t, f.service.Approve(ctx, suggestion.ID.Hex(), models.SentByAdminPanel))

	kb := f.knowledgeBase(t)
	require.Len(t, kb, 1)
	assert.Equal(t, suggestion.ID.Hex(), kb[0].ID)
	assert.Equal(t, "T", kb[0].Title)
	assert.Equal(t, "C", kb[0].Content)
	assert.Equal(t, models.KnowledgeSourceHybridLearning, kb[0].Source)
	assert.NotNil(t, kb[0].AddedAt)

	stored, err := f.suggestions.GetByID(ctx, suggestion.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionApproved, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, models.SentByAdminPanel, *stored.ApprovedBy)
	assert.NotNil(t, stored.ApprovedAt)
}

func TestApproveTwiceKeepsOneEntry(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	suggestion := f.pending(t, "T", "C")

	require.NoError(t, f.service.Approve(ctx, suggestion.ID.Hex(), "admin"))
	require.NoError(t, f.service.Approve(ctx, suggestion.ID.Hex(), "admin"))

	assert.Len(t, f.knowledgeBase(t), 1)
}

func TestRejectedNeverBecomesApproved(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	suggestion := f.pending(t, "T", "C")

	require.NoError(t, f.service.Reject(ctx, suggestion.ID.Hex()))
	err := f.service.Approve(ctx, suggestion.ID.Hex(), "admin")
	assert.ErrorIs(t, err, models.ErrSuggestionRejected)

	stored, err := f.suggestions.GetByID(ctx, suggestion.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, stored.Status)
	assert.Empty(t, f.knowledgeBase(t))
}

func TestRejectKeepsApproved(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	suggestion := f.pending(t, "T", "C")
	require.NoError(t, f.service.Approve(ctx, suggestion.ID.Hex(), "admin"))

	require.NoError(t, f.service.Reject(ctx, suggestion.ID.Hex()))

	stored, err := f.suggestions.GetByID(ctx, suggestion.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionApproved, stored.Status)
}

// A reject landing between the knowledge push and the approval guard.
type rejectDuringApprove struct {
	*testutil.BotStore
	suggestions *testutil.SuggestionStore
	target      *models.Suggestion
}

func (b *rejectDuringApprove) AppendKnowledge(ctx context.Context, botName string, entry models.KnowledgeEntry) (bool, error) {
	added, err := b.BotStore.AppendKnowledge(ctx, botName, entry)
	b.suggestions.ForceStatus(b.target.ID, models.SuggestionRejected)
	return added, err
}

func TestApproveLosingToRejectRemovesEntry(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	suggestion := f.pending(t, "T", "C")
	bots := &rejectDuringApprove{BotStore: f.bots, suggestions: f.suggestions, target: suggestion}
	service := services.NewKnowledgeService(f.suggestions, bots, "Mia")

	err := service.Approve(ctx, suggestion.ID.Hex(), "admin")
	assert.ErrorIs(t, err, models.ErrSuggestionRejected)
	assert.Empty(t, f.knowledgeBase(t))
}

// An approve that pushed the entry but never set the status.
func TestRejectRemovesEntryOfInterruptedApprove(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	suggestion := f.pending(t, "T", "C")
	_, err := f.bots.AppendKnowledge(ctx, "Mia", models.KnowledgeEntry{ID: suggestion.ID.Hex(), Title: "T", Content: "C"})
	require.NoError(t, err)

	require.NoError(t, f.service.Reject(ctx, suggestion.ID.Hex()))

	stored, err := f.suggestions.GetByID(ctx, suggestion.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, stored.Status)
	assert.Empty(t, f.knowledgeBase(t))
}

func TestApproveUnknownID(t *testing.T) {
	f := newKnowledge(t)

	assert.ErrorIs(t, f.service.Approve(context.Background(), "not-an-id", "admin"), models.ErrNotFound)
	assert.ErrorIs(t, f.service.Reject(context.Background(), "65f1c8e2a1b2c3d4e5f60718"), models.ErrNotFound)
}

func TestListDefaultsToPending(t *testing.T) {
	f := newKnowledge(t)
	ctx := context.Background()
	f.pending(t, "A", "1")
	rejected := f.pending(t, "B", "2")
	require.NoError(t, f.service.Reject(ctx, rejected.ID.Hex()))

	list, err := f.service.List(ctx, "bogus")
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionPending, list.Status)
	require.Len(t, list.Suggestions, 1)
	assert.Equal(t, "A", list.Suggestions[0].Title)
	assert.EqualValues(t, 1, list.Counts[models.SuggestionRejected])
}

func TestSuggestTruncatesTitle(t *testing.T) {
	f := newKnowledge(t)
	question := "Vocês traduzem certidões de nascimento emitidas em outros estados do Brasil?"

	suggestion, err := f.service.Suggest(context.Background(), "+1", question, "não sei")
	require.NoError(t, err)
	assert.Equal(t, "Dúvida sobre: "+string([]rune(question)[:50])+"...", suggestion.Title)
	assert.Equal(t, models.SuggestionPending, suggestion.Status)

	_, err = f.service.Suggest(context.Background(), "+1", "  ", "x")
	assert.Error(t, err)
}

func TestShowsUncertainty(t *testing.T) {
	assert.True(t, services.ShowsUncertainty("Hmm, NÃO SEI informar"))
	assert.False(t, services.ShowsUncertainty("O prazo é de 3 dias úteis."))
}
