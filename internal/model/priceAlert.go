package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type PriceAlert struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"alert_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"-"`
	ProductID      string             `bson:"product_id" json:"product_id"`
	ProductTitle   string             `bson:"product_title" json:"product_title"`
	Thumbnail      string             `bson:"thumbnail" json:"thumbnail"`
	Seller         string             `bson:"seller" json:"seller"`
	OldPrice       float64            `bson:"old_price" json:"old_price"`
	NewPrice       float64            `bson:"new_price" json:"new_price"`
	PercentageDrop float64            `bson:"percentage_drop" json:"percentage_drop"`
	Currency       string             `bson:"currency" json:"currency"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      primitive.DateTime `bson:"created_at" json:"created_at"`
}
