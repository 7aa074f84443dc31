package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const BotsCollection = "bots"

type MongoBotRepository struct {
	coll *mongo.Collection
}

func NewMongoBotRepository(db *mongo.Database) *MongoBotRepository {
	return &MongoBotRepository{coll: db.Collection(BotsCollection)}
}

func (r *MongoBotRepository) GetProfile(ctx context.Context, name string) (*models.BotProfile, error) {
	var profile models.BotProfile
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.StoreError("reading bot profile", err)
	}
	return &profile, nil
}

// AppendKnowledge pushes entry unless an entry with the same _id is already
// in the knowledge base. It returns true when the entry was added.
func (r *MongoBotRepository) AppendKnowledge(ctx context.Context, botName string, entry models.KnowledgeEntry) (bool, error) {
	// The profile must exist before the guarded push: an upsert on the
	// guarded filter would create a second profile when the entry is present.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"name": botName},
		bson.M{"$setOnInsert": bson.M{
			"name":           botName,
			"knowledge_base": bson.A{},
			"faqs":           bson.A{},
			"created_at":     time.Now(),
		}},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, models.StoreError("ensuring bot profile", err)
	}

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"name": botName, "knowledge_base._id": bson.M{"$ne": entry.ID}},
		bson.M{
			"$push": bson.M{"knowledge_base": entry},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return false, models.StoreError("appending knowledge", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoBotRepository) RemoveKnowledge(ctx context.Context, botName string, entryID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"name": botName},
		bson.M{"$pull": bson.M{"knowledge_base": bson.M{"_id": entryID}}})
	if err != nil {
		return models.StoreError("removing knowledge", err)
	}
	return nil
}

// SaveTraining replaces the system prompt and the active flag. It reports
// false when no profile has the name.
func (r *MongoBotRepository) SaveTraining(ctx context.Context, botName string, training models.BotTraining, at time.Time) (bool, error) {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"name": botName},
		bson.M{"$set": bson.M{
			"system_prompt": strings.TrimSpace(training.SystemPrompt),
			"is_active":     training.IsActive,
			"updated_at":    at,
		}})
	if err != nil {
		return false, models.StoreError("saving bot training", err)
	}
	return result.MatchedCount == 1, nil
}

// SetActive turns the IA on or off for every client, creating the profile
// when needed.
func (r *MongoBotRepository) SetActive(ctx context.Context, botName string, active bool, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"name": botName},
		bson.M{
			"$set": bson.M{"is_active": active, "updated_at": at},
			"$setOnInsert": bson.M{
				"name":           botName,
				"knowledge_base": bson.A{},
				"faqs":           bson.A{},
				"created_at":     at,
			},
		},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return models.StoreError("saving bot status", err)
	}
	return nil
}
