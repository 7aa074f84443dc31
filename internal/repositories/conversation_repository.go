package repositories

import (
	"context"
	"errors"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const ConversationsCollection = "conversas"

// Newest first. _id breaks ties between turns written in the same millisecond.
var newestFirst = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

type MongoConversationRepository struct {
	coll *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{coll: db.Collection(ConversationsCollection)}
}

// EnsureIndexes creates the indexes used by the mode lookup and the history.
func (r *MongoConversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "mode", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return models.StoreError("creating conversation indexes", err)
	}
	return nil
}

func (r *MongoConversationRepository) Append(ctx context.Context, turn *models.Turn) error {
	if turn.ID.IsZero() {
		turn.ID = bson.NewObjectID()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	// BSON dates keep milliseconds only.
	turn.Timestamp = turn.Timestamp.Truncate(time.Millisecond)

	if _, err := r.coll.InsertOne(ctx, turn); err != nil {
		return models.StoreError("saving turn", err)
	}
	return nil
}

func (r *MongoConversationRepository) Latest(ctx context.Context, phone string) (*models.Turn, error) {
	var turn models.Turn
	err := r.coll.FindOne(ctx, bson.M{"phone": phone}, options.FindOne().SetSort(newestFirst)).Decode(&turn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, models.StoreError("reading latest turn", err)
	}
	return &turn, nil
}

func (r *MongoConversationRepository) History(ctx context.Context, phone string, limit int) ([]*models.Turn, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"phone": phone},
		options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
	if err != nil {
		return nil, models.StoreError("querying history", err)
	}

	var turns []*models.Turn
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, models.StoreError("decoding history", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// conversationGroup summarises the turns of each phone. Input must be
// sorted newest first.
var conversationGroup = bson.D{{Key: "$group", Value: bson.D{
	{Key: "_id", Value: "$phone"},
	{Key: "last_message", Value: bson.D{{Key: "$first", Value: "$message"}}},
	{Key: "last_timestamp", Value: bson.D{{Key: "$first", Value: "$timestamp"}}},
	{Key: "message_count", Value: bson.D{{Key: "$sum", Value: 1}}},
	{Key: "mode", Value: bson.D{{Key: "$first", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$mode", models.ModeIA}}}}}},
	{Key: "transferred_at", Value: bson.D{{Key: "$max", Value: "$transferred_at"}}},
	{Key: "transfer_reason", Value: bson.D{{Key: "$top", Value: bson.D{
		{Key: "sortBy", Value: bson.D{{Key: "transferred_at", Value: -1}}},
		{Key: "output", Value: "$transfer_reason"},
	}}}},
}}}

func (r *MongoConversationRepository) AwaitingHuman(ctx context.Context, limit int) ([]*models.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: newestFirst}},
		conversationGroup,
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "mode", Value: models.ModeHuman}},
			bson.D{{Key: "transferred_at", Value: bson.D{{Key: "$ne", Value: nil}}}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "transferred_at", Value: -1}, {Key: "last_timestamp", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	return r.aggregateConversations(ctx, pipeline)
}

func (r *MongoConversationRepository) List(ctx context.Context, limit int) ([]*models.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: newestFirst}},
		conversationGroup,
		{{Key: "$sort", Value: bson.D{{Key: "last_timestamp", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	return r.aggregateConversations(ctx, pipeline)
}

func (r *MongoConversationRepository) aggregateConversations(ctx context.Context, pipeline mongo.Pipeline) ([]*models.Conversation, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.StoreError("aggregating conversations", err)
	}
	var conversations []*models.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, models.StoreError("decoding conversations", err)
	}
	return conversations, nil
}

func (r *MongoConversationRepository) ReturnToIA(ctx context.Context, phone string, returnedBy string, at time.Time) (int64, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{"phone": phone},
		bson.M{
			"$set": bson.M{
				"mode":        models.ModeIA,
				"returned_at": at,
				"returned_by": returnedBy,
			},
			"$unset": bson.M{
				"transfer_reason": "",
				"transferred_at":  "",
			},
		})
	if err != nil {
		return 0, models.StoreError("returning conversation to IA", err)
	}
	return result.MatchedCount, nil
}

func (r *MongoConversationRepository) PhonesInHuman(ctx context.Context, since time.Time) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "mode", Value: models.ModeHuman},
			{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: since}}},
		}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$phone"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.StoreError("listing human phones", err)
	}
	var rows []struct {
		Phone string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, models.StoreError("decoding human phones", err)
	}
	phones := make([]string, 0, len(rows))
	for _, row := range rows {
		phones = append(phones, row.Phone)
	}
	return phones, nil
}

func (r *MongoConversationRepository) Stats(ctx context.Context, since time.Time) (*models.ConversationStats, error) {
	window := bson.M{"timestamp": bson.M{"$gte": since}}
	stats := &models.ConversationStats{}

	var err error
	if stats.TotalConversas, err = r.coll.CountDocuments(ctx, window); err != nil {
		return nil, models.StoreError("counting turns", err)
	}
	if stats.AtendimentosIA, err = r.coll.CountDocuments(ctx, bson.M{
		"timestamp": bson.M{"$gte": since}, "role": models.RoleAssistant,
	}); err != nil {
		return nil, models.StoreError("counting assistant turns", err)
	}
	if stats.AtendimentosHumano, err = r.coll.CountDocuments(ctx, bson.M{
		"timestamp": bson.M{"$gte": since}, "mode": models.ModeHuman,
	}); err != nil {
		return nil, models.StoreError("counting human turns", err)
	}

	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: window}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$phone"}}}},
		{{Key: "$count", Value: "total"}},
	})
	if err != nil {
		return nil, models.StoreError("counting phones", err)
	}
	var counted []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &counted); err != nil {
		return nil, models.StoreError("decoding phone count", err)
	}
	if len(counted) > 0 {
		stats.ClientesUnicos = counted[0].Total
	}
	return stats, nil
}
