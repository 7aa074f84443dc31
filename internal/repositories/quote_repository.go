package repositories

import (
	"context"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const QuotesCollection = "orcamentos"

type MongoQuoteRepository struct {
	coll *mongo.Collection
}

func NewMongoQuoteRepository(db *mongo.Database) *MongoQuoteRepository {
	return &MongoQuoteRepository{coll: db.Collection(QuotesCollection)}
}

func (r *MongoQuoteRepository) List(ctx context.Context, filter models.QuoteFilter) ([]*models.Quote, error) {
	query := bson.M{"created_at": bson.M{"$gte": filter.Since}}
	if filter.Status != "" && filter.Status != models.QuoteStatusAll {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, models.StoreError("querying quotes", err)
	}
	var quotes []*models.Quote
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, models.StoreError("decoding quotes", err)
	}
	return quotes, nil
}

func (r *MongoQuoteRepository) UpdateStatus(ctx context.Context, id string, status string, at time.Time) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status, "updated_at": at}})
	if err != nil {
		return false, models.StoreError("updating quote status", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *MongoQuoteRepository) Stats(ctx context.Context, since time.Time) (*models.QuoteStats, error) {
	stats := &models.QuoteStats{}
	window := bson.M{"created_at": bson.M{"$gte": since}}

	counts := []struct {
		filter interface{}
		dest   *int64
	}{
		{bson.M{}, &stats.Total},
		{window, &stats.TotalWindow},
		{bson.M{"status": models.QuotePendente}, &stats.Pendentes},
		{bson.M{"status": models.QuoteConfirmado}, &stats.Confirmados},
		{bson.M{"status": models.QuotePago}, &stats.Pagos},
	}
	for _, c := range counts {
		n, err := r.coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, models.StoreError("counting quotes", err)
		}
		*c.dest = n
	}

	var err error
	if stats.ValorTotal, err = r.sumValor(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if stats.ValorWindow, err = r.sumValor(ctx, window); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *MongoQuoteRepository) sumValor(ctx context.Context, match bson.M) (float64, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$valor"}}},
		}}},
	})
	if err != nil {
		return 0, models.StoreError("summing quotes", err)
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, models.StoreError("decoding quote sum", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
