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

// SellerUpsert creates the Seller row for the given name if it does not
// exist and returns the stored row, same idempotent contract as
// ProductUpsert.
func (db Database) SellerUpsert(ctx context.Context, s model.Seller) (model.Seller, error) {
	var stored model.Seller
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(CollectionSellers).FindOneAndUpdate(
		ctx,
		bson.M{"name": s.Name},
		bson.M{"$setOnInsert": bson.M{
			"name":       s.Name,
			"platform":   s.Platform,
			"created_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
		opts,
	).Decode(&stored)
	return stored, errors.Wrapf(err, "error upserting Seller with name: %s", s.Name)
}
