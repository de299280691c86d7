package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// PriceHistory is append-only. Day is the local calendar date of RecordedAt
// in "2006-01-02" form; a unique index on (product_id, seller_id, day)
// enforces at most one entry per product/seller pair per day.
type PriceHistory struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	ProductID  primitive.ObjectID  `bson:"product_id" json:"-"`
	SellerID   *primitive.ObjectID `bson:"seller_id" json:"seller_id"`
	SellerName string              `bson:"seller_name" json:"seller_name"`
	Price      float64             `bson:"price" json:"price"`
	Currency   string              `bson:"currency" json:"currency"`
	Day        string              `bson:"day" json:"-"`
	RecordedAt primitive.DateTime  `bson:"recorded_at" json:"recorded_at"`
}
