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

const SuggestionsCollection = "knowledge_suggestions"

type MongoSuggestionRepository struct {
	coll *mongo.Collection
}

func NewMongoSuggestionRepository(db *mongo.Database) *MongoSuggestionRepository {
	return &MongoSuggestionRepository{coll: db.Collection(SuggestionsCollection)}
}

// parseID maps malformed ids to ErrNotFound so callers treat them like
// unknown suggestions.
func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, models.ErrNotFound
	}
	return oid, nil
}

func (r *MongoSuggestionRepository) Create(ctx context.Context, suggestion *models.Suggestion) error {
	if suggestion.ID.IsZero() {
		suggestion.ID = bson.NewObjectID()
	}
	if suggestion.Status == "" {
		suggestion.Status = models.SuggestionPending
	}
	if _, err := r.coll.InsertOne(ctx, suggestion); err != nil {
		return models.StoreError("saving suggestion", err)
	}
	return nil
}

func (r *MongoSuggestionRepository) GetByID(ctx context.Context, id string) (*models.Suggestion, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var suggestion models.Suggestion
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&suggestion)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.StoreError("reading suggestion", err)
	}
	return &suggestion, nil
}

func (r *MongoSuggestionRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Suggestion, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, models.StoreError("querying suggestions", err)
	}
	var suggestions []*models.Suggestion
	if err := cursor.All(ctx, &suggestions); err != nil {
		return nil, models.StoreError("decoding suggestions", err)
	}
	return suggestions, nil
}

// MarkApproved moves a pending suggestion to approved. It returns false when
// the suggestion was no longer pending.
func (r *MongoSuggestionRepository) MarkApproved(ctx context.Context, id string, approvedBy string, at time.Time) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": models.SuggestionPending},
		bson.M{"$set": bson.M{
			"status":      models.SuggestionApproved,
			"approved_at": at,
			"approved_by": approvedBy,
		}})
	if err != nil {
		return false, models.StoreError("approving suggestion", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *MongoSuggestionRepository) MarkRejected(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": models.SuggestionPending},
		bson.M{"$set": bson.M{
			"status":      models.SuggestionRejected,
			"rejected_at": at,
		}})
	if err != nil {
		return false, models.StoreError("rejecting suggestion", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *MongoSuggestionRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, models.StoreError("counting suggestions", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Total  int64  `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, models.StoreError("decoding suggestion counts", err)
	}
	counts := map[string]int64{
		models.SuggestionPending:  0,
		models.SuggestionApproved: 0,
		models.SuggestionRejected: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
