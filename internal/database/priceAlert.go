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

func (db Database) PriceAlertInsert(ctx context.Context, pa model.PriceAlert) (model.PriceAlert, error) {
	pa.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	r, err := db.Collection(CollectionPriceAlerts).InsertOne(ctx, pa)
	if err != nil {
		return pa, errors.Wrapf(err, "error inserting PriceAlert for UserID: %s", pa.UserID.Hex())
	}
	pa.ID = r.InsertedID.(primitive.ObjectID)
	return pa, nil
}

func (db Database) PriceAlertsFindByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]model.PriceAlert, error) {
	var pas []model.PriceAlert
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cur, err := db.Collection(CollectionPriceAlerts).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find PriceAlerts for UserID: %s", userID.Hex())
	}
	if err = cur.All(ctx, &pas); err != nil {
		return nil, errors.Wrapf(err, "error getting PriceAlerts from cursor for UserID: %s", userID.Hex())
	}
	return pas, nil
}

func (db Database) PriceAlertUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := db.Collection(CollectionPriceAlerts).CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	return n, errors.Wrapf(err, "error counting unread PriceAlerts for UserID: %s", userID.Hex())
}

func (db Database) PriceAlertMarkRead(ctx context.Context, userID primitive.ObjectID, alertID primitive.ObjectID) error {
	res, err := db.Collection(CollectionPriceAlerts).UpdateOne(
		ctx,
		bson.M{"_id": alertID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return errors.Wrapf(err, "error marking PriceAlert as read, AlertID: %s, UserID: %s", alertID.Hex(), userID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "when marking PriceAlert as read, AlertID: %s, UserID: %s",
			alertID.Hex(), userID.Hex())
	}
	return nil
}

func (db Database) PriceAlertMarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := db.Collection(CollectionPriceAlerts).UpdateMany(
		ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return errors.Wrapf(err, "error marking all PriceAlerts as read for UserID: %s", userID.Hex())
}

func (db Database) PriceAlertDelete(ctx context.Context, userID primitive.ObjectID, alertID primitive.ObjectID) error {
	res, err := db.Collection(CollectionPriceAlerts).DeleteOne(ctx, bson.M{"_id": alertID, "user_id": userID})
	if err != nil {
		return errors.Wrapf(err, "error deleting PriceAlert, AlertID: %s, UserID: %s", alertID.Hex(), userID.Hex())
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "when deleting PriceAlert, AlertID: %s, UserID: %s",
			alertID.Hex(), userID.Hex())
	}
	return nil
}
