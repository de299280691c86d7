package database

import (
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"pricewatch/internal/model"
	"time"
)

// SearchCacheFind returns the newest live entry for the normalized
// (query, location) pair. Expired entries are removed by the TTL monitor, so
// any stored entry counts as a hit.
func (db Database) SearchCacheFind(ctx context.Context, query string, location string) (model.SearchCache, error) {
	var sc model.SearchCache
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})
	err := db.Collection(CollectionSearchCaches).FindOne(
		ctx,
		bson.M{"query": query, "location": location},
		opts,
	).Decode(&sc)
	return sc, errors.Wrapf(err, "error finding SearchCache for query: %s, location: %s", query, location)
}

func (db Database) SearchCacheInsert(ctx context.Context, sc model.SearchCache) (model.SearchCache, error) {
	sc.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	r, err := db.Collection(CollectionSearchCaches).InsertOne(ctx, sc)
	if err != nil {
		return sc, errors.Wrapf(err, "error inserting SearchCache for query: %s", sc.Query)
	}
	sc.ID = r.InsertedID.(primitive.ObjectID)
	return sc, nil
}

func (db Database) SearchCachesFindRecent(ctx context.Context, limit int64) ([]model.SearchCache, error) {
	var scs []model.SearchCache
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cur, err := db.Collection(CollectionSearchCaches).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find recent SearchCaches")
	}
	if err = cur.All(ctx, &scs); err != nil {
		return nil, errors.Wrap(err, "error getting recent SearchCaches from cursor")
	}
	return scs, nil
}
