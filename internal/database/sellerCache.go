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

func (db Database) SellerCacheFind(ctx context.Context, productID string) (model.SellerCache, error) {
	var sc model.SellerCache
	err := db.Collection(CollectionSellerCaches).FindOne(ctx, bson.M{"product_id": productID}).Decode(&sc)
	return sc, errors.Wrapf(err, "error finding SellerCache for product ID: %s", productID)
}

// SellerCacheUpsert overwrites the entry for the product and resets its TTL
// clock by re-stamping created_at.
func (db Database) SellerCacheUpsert(ctx context.Context, sc model.SellerCache) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	opts := options.Update().SetUpsert(true)
	_, err := db.Collection(CollectionSellerCaches).UpdateOne(
		ctx,
		bson.M{"product_id": sc.ProductID},
		bson.M{"$set": bson.M{
			"product_id":    sc.ProductID,
			"product_title": sc.ProductTitle,
			"sellers":       sc.Sellers,
			"last_fetched":  now,
			"created_at":    now,
		}},
		opts,
	)
	return errors.Wrapf(err, "error upserting SellerCache for product ID: %s", sc.ProductID)
}
