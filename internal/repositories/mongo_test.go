package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"mia-admin/config"
	"mia-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// testDatabase connects to MONGODB_TEST_URI and drops the scratch database
// afterwards. Tests are skipped when the variable is not set.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI não definido")
	}
	ctx := context.Background()
	name := fmt.Sprintf("mia_test_%d", time.Now().UnixNano())
	client, db, err := config.ConnectDatabase(ctx, config.MongoConfig{URI: uri, Database: name})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Drop(context.Background())
		client.Disconnect(context.Background())
	})
	return db
}

func TestConversationRepositoryMode(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoConversationRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	latest, err := repo.Latest(ctx, "+1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	transferredAt := at.Add(time.Minute)
	turns := []*models.Turn{
		{Phone: "+1", Role: models.RoleUser, Message: "oi", Mode: models.ModeIA, Timestamp: at},
		{Phone: "+1", Role: models.RoleAssistant, Message: "transferindo", Mode: models.ModeHuman,
			Timestamp: transferredAt, TransferredAt: &transferredAt, TransferReason: "pedido"},
		{Phone: "+1", Role: models.RoleUser, Message: "alô", Mode: models.ModeHuman, Timestamp: transferredAt},
		{Phone: "+2", Role: models.RoleUser, Message: "bom dia", Mode: models.ModeIA, Timestamp: at},
	}
	for _, turn := range turns {
		require.NoError(t, repo.Append(ctx, turn))
	}

	latest, err = repo.Latest(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, "alô", latest.Message, "ties break on _id")

	history, err := repo.History(ctx, "+1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "transferindo", history[0].Message)
	assert.Equal(t, "alô", history[1].Message)

	awaiting, err := repo.AwaitingHuman(ctx, 100)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, "+1", awaiting[0].Phone)
	assert.Equal(t, models.ModeHuman, awaiting[0].Mode)
	assert.Equal(t, "pedido", awaiting[0].TransferReason)
	assert.Equal(t, 3, awaiting[0].MessageCount)

	phones, err := repo.PhonesInHuman(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, []string{"+1"}, phones)

	updated, err := repo.ReturnToIA(ctx, "+1", models.SentByAdminPanel, at.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	latest, err = repo.Latest(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeIA, latest.Mode)
	assert.Nil(t, latest.TransferredAt)

	awaiting, err = repo.AwaitingHuman(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, awaiting)

	stats, err := repo.Stats(ctx, at)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalConversas)
	assert.EqualValues(t, 2, stats.ClientesUnicos)
}

func TestKnowledgeRepositories(t *testing.T) {
	db := testDatabase(t)
	suggestions := NewMongoSuggestionRepository(db)
	bots := NewMongoBotRepository(db)
	ctx := context.Background()

	suggestion := &models.Suggestion{Title: "T", Content: "C", CreatedAt: time.Now()}
	require.NoError(t, suggestions.Create(ctx, suggestion))

	entry := models.KnowledgeEntry{ID: suggestion.ID.Hex(), Title: "T", Content: "C", Source: models.KnowledgeSourceHybridLearning}
	added, err := bots.AppendKnowledge(ctx, "Mia", entry)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = bots.AppendKnowledge(ctx, "Mia", entry)
	require.NoError(t, err)
	assert.False(t, added)

	profile, err := bots.GetProfile(ctx, "Mia")
	require.NoError(t, err)
	assert.Len(t, profile.KnowledgeBase, 1)
	count, err := db.Collection(BotsCollection).CountDocuments(ctx, bson.M{"name": "Mia"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	ok, err := suggestions.MarkApproved(ctx, suggestion.ID.Hex(), "admin", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = suggestions.MarkRejected(ctx, suggestion.ID.Hex(), time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	counts, err := suggestions.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[models.SuggestionApproved])

	require.NoError(t, bots.RemoveKnowledge(ctx, "Mia", entry.ID))
	profile, err = bots.GetProfile(ctx, "Mia")
	require.NoError(t, err)
	assert.Empty(t, profile.KnowledgeBase)

	_, err = suggestions.GetByID(ctx, "bad")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBotTrainingRepository(t *testing.T) {
	db := testDatabase(t)
	bots := NewMongoBotRepository(db)
	ctx := context.Background()
	now := time.Now()

	found, err := bots.SaveTraining(ctx, "Mia", models.BotTraining{SystemPrompt: "Seja cordial sempre."}, now)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, bots.SetActive(ctx, "Mia", false, now))
	profile, err := bots.GetProfile(ctx, "Mia")
	require.NoError(t, err)
	assert.False(t, profile.Active())

	found, err = bots.SaveTraining(ctx, "Mia", models.BotTraining{SystemPrompt: " Seja cordial sempre. ", IsActive: true}, now)
	require.NoError(t, err)
	assert.True(t, found)
	profile, err = bots.GetProfile(ctx, "Mia")
	require.NoError(t, err)
	assert.Equal(t, "Seja cordial sempre.", profile.SystemPrompt)
	assert.True(t, profile.Active())
}

func TestQuoteRepository(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoQuoteRepository(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	docs := []interface{}{
		models.Quote{ID: bson.NewObjectID(), Status: models.QuotePendente, Valor: 10, CreatedAt: now.Add(-time.Hour)},
		models.Quote{ID: bson.NewObjectID(), Status: models.QuotePago, Valor: 20, CreatedAt: now.Add(-2 * time.Hour)},
		models.Quote{ID: bson.NewObjectID(), Status: models.QuotePendente, Valor: 30, CreatedAt: now.AddDate(0, 0, -60)},
	}
	_, err := db.Collection(QuotesCollection).InsertMany(ctx, docs)
	require.NoError(t, err)

	list, err := repo.List(ctx, models.QuoteFilter{Since: now.AddDate(0, 0, -30), Status: models.QuoteStatusAll, Limit: 500})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 10.0, list[0].Valor)

	stats, err := repo.Stats(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.TotalWindow)
	assert.Equal(t, 60.0, stats.ValorTotal)
	assert.Equal(t, 30.0, stats.ValorWindow)

	found, err := repo.UpdateStatus(ctx, list[0].ID.Hex(), models.QuoteConfirmado, now)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestWebhookRepositoryDedupes(t *testing.T) {
	db := testDatabase(t)
	repo := NewMongoWebhookRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	fresh, err := repo.MarkProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, fresh)
	fresh, err = repo.MarkProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, fresh)

	require.NoError(t, repo.Forget(ctx, "m1"))
	fresh, err = repo.MarkProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, fresh)
}
