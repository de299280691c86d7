package database

import (
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"pricewatch/internal/model"
)

var ErrPriceAlreadyRecorded = errors.New("price already recorded for this day")

// PriceHistoryExistsForDay reports whether an entry for the
// (product, seller) pair was already written on the given calendar day.
func (db Database) PriceHistoryExistsForDay(
	ctx context.Context, productID primitive.ObjectID, sellerID *primitive.ObjectID, day string,
) (bool, error) {
	err := db.Collection(CollectionPriceHistories).FindOne(ctx, bson.M{
		"product_id": productID,
		"seller_id":  sellerID,
		"day":        day,
	}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, errors.Wrapf(err, "error finding PriceHistory for ProductID: %s, day: %s", productID.Hex(), day)
	}
	return true, nil
}

// PriceHistoryInsert appends one entry. A concurrent writer that beat us to
// today's slot surfaces as ErrPriceAlreadyRecorded via the unique
// (product_id, seller_id, day) index.
func (db Database) PriceHistoryInsert(ctx context.Context, ph model.PriceHistory) error {
	_, err := db.Collection(CollectionPriceHistories).InsertOne(ctx, ph)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPriceAlreadyRecorded
		}
		return errors.Wrapf(err, "error inserting PriceHistory: %+v", ph)
	}
	return nil
}

// PriceHistoryFindByProduct returns entries oldest first, optionally
// filtered by seller.
func (db Database) PriceHistoryFindByProduct(
	ctx context.Context, productID primitive.ObjectID, sellerID *primitive.ObjectID,
) ([]model.PriceHistory, error) {
	var phs []model.PriceHistory
	filter := bson.M{"product_id": productID}
	if sellerID != nil {
		filter["seller_id"] = *sellerID
	}
	opts := options.Find().SetSort(bson.M{"recorded_at": 1})
	cur, err := db.Collection(CollectionPriceHistories).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find PriceHistory for ProductID: %s", productID.Hex())
	}
	if err = cur.All(ctx, &phs); err != nil {
		return nil, errors.Wrapf(err, "error getting PriceHistory from cursor for ProductID: %s", productID.Hex())
	}
	return phs, nil
}
