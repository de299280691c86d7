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

// ProductUpsert creates the Product row for productID if it does not exist
// and returns the stored row. The $setOnInsert update makes repeated upserts
// idempotent: an existing row's title and thumbnail are never overwritten.
func (db Database) ProductUpsert(ctx context.Context, p model.Product) (model.Product, error) {
	var stored model.Product
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(CollectionProducts).FindOneAndUpdate(
		ctx,
		bson.M{"product_id": p.ProductID},
		bson.M{"$setOnInsert": bson.M{
			"product_id":   p.ProductID,
			"title":        p.Title,
			"thumbnail":    p.Thumbnail,
			"product_link": p.ProductLink,
			"created_at":   primitive.NewDateTimeFromTime(time.Now()),
		}},
		opts,
	).Decode(&stored)
	return stored, errors.Wrapf(err, "error upserting Product with product ID: %s", p.ProductID)
}

func (db Database) ProductFindByProductID(ctx context.Context, productID string) (model.Product, error) {
	var p model.Product
	err := db.Collection(CollectionProducts).FindOne(ctx, bson.M{"product_id": productID}).Decode(&p)
	return p, errors.Wrapf(err, "error finding Product with product ID: %s", productID)
}
