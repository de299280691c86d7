package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"pricewatch/internal/database"
	"pricewatch/internal/model"
)

func TestExtractPlatform(t *testing.T) {
	tests := []struct {
		seller string
		want   string
	}{
		{"Amazon.in", "amazon.in"},
		{"Amazon.in - Seller XYZ", "amazon.in"},
		{"Flipkart", "flipkart.com"},
		{"Reliance Digital", "reliancedigital.in"},
		{"Tata CLiQ", "tatacliq.com"},
		{"Vijay Sales Official", "vijaysales.com"},
		{"Some Local Store", "some local store"},
	}
	for _, tt := range tests {
		t.Run(tt.seller, func(t *testing.T) {
			assert.Equal(t, tt.want, extractPlatform(tt.seller))
		})
	}
}

func TestGenerateSellerLink(t *testing.T) {
	link := generateSellerLink("Amazon.in", "Mechanical Keyboard")
	assert.Equal(t, "https://www.amazon.in/s?k=Mechanical+Keyboard", link)

	link = generateSellerLink("Flipkart", "Wireless Mouse")
	assert.Equal(t, "https://www.flipkart.com/search?q=Wireless+Mouse", link)

	link = generateSellerLink("Corner Shop", "Wireless Mouse")
	assert.Equal(t, "https://www.google.com/search?q=Wireless+Mouse+Corner+Shop", link)
}

func TestDayKey(t *testing.T) {
	d := time.Date(2024, time.March, 5, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2024-03-05", dayKey(d))
	assert.Equal(t, dayKey(d), dayKey(d.Add(-23*time.Hour)), "same calendar day must share a key")
	assert.NotEqual(t, dayKey(d), dayKey(d.Add(time.Second)), "midnight starts a new key")
}

func TestRecordPriceHistoryEntryOncePerDay(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	result := model.ShopResult{
		ProductID:      "123",
		Title:          "Mechanical Keyboard",
		Seller:         "Amazon.in",
		ExtractedPrice: 1299,
	}
	productDoc := bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "product_id", Value: "123"},
		{Key: "title", Value: "Mechanical Keyboard"},
	}
	sellerDoc := bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "name", Value: "Amazon.in"},
		{Key: "platform", Value: "amazon.in"},
	}
	ns := database.Name + "." + database.CollectionPriceHistories

	newTestRecorder := func(mt *mtest.T) Server {
		return Server{
			DB:     database.Database{Database: mt.Client.Database(database.Name)},
			Logger: nopLogger{},
		}
	}

	mt.Run("existing entry for the day is not written again", func(mt *mtest.T) {
		s := newTestRecorder(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: productDoc}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sellerDoc}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}}),
		)
		require.NoError(mt, s.recordPriceHistoryEntry(context.Background(), result))
		for _, ev := range mt.GetAllStartedEvents() {
			assert.NotEqual(mt, "insert", ev.CommandName, "same day must not produce a second entry")
		}
	})

	mt.Run("fresh day writes exactly one entry", func(mt *mtest.T) {
		s := newTestRecorder(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: productDoc}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sellerDoc}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)
		require.NoError(mt, s.recordPriceHistoryEntry(context.Background(), result))

		inserts := 0
		for _, ev := range mt.GetAllStartedEvents() {
			if ev.CommandName == "insert" {
				inserts++
				day := ev.Command.Lookup("documents").Array().Index(0).Value().Document().Lookup("day")
				assert.Equal(mt, dayKey(time.Now()), day.StringValue())
			}
		}
		assert.Equal(mt, 1, inserts)
	})

	mt.Run("concurrent writer beating the insert counts as recorded", func(mt *mtest.T) {
		s := newTestRecorder(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: productDoc}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sellerDoc}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error",
			}),
		)
		assert.NoError(mt, s.recordPriceHistoryEntry(context.Background(), result))
	})
}
