package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  []byte             `bson:"password"`
	Wishlist  []WishlistItem     `bson:"wishlist"`
	CreatedAt primitive.DateTime `bson:"created_at"`
	UpdatedAt primitive.DateTime `bson:"updated_at"`
}

// WishlistItem is a user's saved reference to a product/seller pair whose
// price is monitored. ProductID is empty for single-seller listings that the
// search provider returned without an identifier.
type WishlistItem struct {
	ItemID         primitive.ObjectID `bson:"item_id" json:"item_id"`
	ProductID      string             `bson:"product_id" json:"product_id"`
	Title          string             `bson:"title" json:"title"`
	Price          string             `bson:"price" json:"price"`
	ExtractedPrice float64            `bson:"extracted_price" json:"extracted_price"`
	PreviousPrice  float64            `bson:"previous_price" json:"previous_price"`
	Thumbnail      string             `bson:"thumbnail" json:"thumbnail"`
	Seller         string             `bson:"seller" json:"seller"`
	Link           string             `bson:"link" json:"link"`
	ProductLink    string             `bson:"product_link" json:"product_link"`
	Rating         float64            `bson:"rating" json:"rating"`
	Reviews        int                `bson:"reviews" json:"reviews"`
	Delivery       string             `bson:"delivery" json:"delivery"`
	LastCheckedAt  primitive.DateTime `bson:"last_checked_at" json:"last_checked_at"`
	AddedAt        primitive.DateTime `bson:"added_at" json:"added_at"`
}
