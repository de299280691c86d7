package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Product is the persistent identity row for an externally identified
// product. Denormalized fields are immutable snapshots from the first
// observation and are never overwritten.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID   string             `bson:"product_id" json:"product_id"`
	Title       string             `bson:"title" json:"title"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	ProductLink string             `bson:"product_link" json:"product_link"`
	CreatedAt   primitive.DateTime `bson:"created_at" json:"created_at"`
}

type Seller struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name      string             `bson:"name" json:"name"`
	Platform  string             `bson:"platform" json:"platform"`
	CreatedAt primitive.DateTime `bson:"created_at" json:"created_at"`
}
