package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"pricewatch/internal/model"
)

func TestPriceHistoryInsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	sellerID := primitive.NewObjectID()
	ph := model.PriceHistory{
		ProductID:  primitive.NewObjectID(),
		SellerID:   &sellerID,
		SellerName: "Amazon.in",
		Price:      1299,
		Currency:   "INR",
		Day:        "2024-03-05",
	}

	mt.Run("first write of the day succeeds", func(mt *mtest.T) {
		db := Database{Database: mt.Client.Database(Name)}
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, db.PriceHistoryInsert(context.Background(), ph))
	})

	mt.Run("second write of the day reports already recorded", func(mt *mtest.T) {
		db := Database{Database: mt.Client.Database(Name)}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))
		err := db.PriceHistoryInsert(context.Background(), ph)
		assert.ErrorIs(mt, err, ErrPriceAlreadyRecorded)
	})

	mt.Run("other write failures are not masked", func(mt *mtest.T) {
		db := Database{Database: mt.Client.Database(Name)}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    112,
			Message: "write conflict",
		}))
		err := db.PriceHistoryInsert(context.Background(), ph)
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrPriceAlreadyRecorded)
	})
}

func TestPriceHistoryExistsForDay(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	ns := Name + "." + CollectionPriceHistories
	productID := primitive.NewObjectID()
	sellerID := primitive.NewObjectID()

	mt.Run("existing entry is found", func(mt *mtest.T) {
		db := Database{Database: mt.Client.Database(Name)}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}}))
		exists, err := db.PriceHistoryExistsForDay(context.Background(), productID, &sellerID, "2024-03-05")
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("absent entry is not an error", func(mt *mtest.T) {
		db := Database{Database: mt.Client.Database(Name)}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		exists, err := db.PriceHistoryExistsForDay(context.Background(), productID, &sellerID, "2024-03-06")
		require.NoError(mt, err)
		assert.False(mt, exists)
	})
}
