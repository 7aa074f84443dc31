package repositories

import (
	"context"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const WebhookCollection = "webhook_mensagens"

// Z-API resends a webhook when the first delivery is slow; ids are kept for
// an hour.
const webhookRetention = int32(3600)

type MongoWebhookRepository struct {
	coll *mongo.Collection
}

func NewMongoWebhookRepository(db *mongo.Database) *MongoWebhookRepository {
	return &MongoWebhookRepository{coll: db.Collection(WebhookCollection)}
}

func (r *MongoWebhookRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "received_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(webhookRetention),
	})
	if err != nil {
		return models.StoreError("creating webhook ttl index", err)
	}
	return nil
}

// MarkProcessed records messageID and reports whether it was seen for the
// first time.
func (r *MongoWebhookRepository) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	_, err := r.coll.InsertOne(ctx, bson.M{"_id": messageID, "received_at": time.Now()})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, models.StoreError("saving webhook id", err)
	}
	return true, nil
}

// Forget drops the marker so a redelivery of messageID is processed again.
func (r *MongoWebhookRepository) Forget(ctx context.Context, messageID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": messageID}); err != nil {
		return models.StoreError("removing webhook id", err)
	}
	return nil
}
