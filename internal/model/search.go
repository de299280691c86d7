package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// ShopResult is one shopping result in the internal shape, transformed from
// the search provider's response.
type ShopResult struct {
	Position       int     `bson:"position" json:"position"`
	ProductID      string  `bson:"product_id" json:"product_id"`
	Title          string  `bson:"title" json:"title"`
	Link           string  `bson:"link" json:"link"`
	ProductLink    string  `bson:"product_link" json:"product_link"`
	Price          string  `bson:"price" json:"price"`
	ExtractedPrice float64 `bson:"extracted_price" json:"extracted_price"`
	Rating         float64 `bson:"rating" json:"rating"`
	Reviews        int     `bson:"reviews" json:"reviews"`
	Delivery       string  `bson:"delivery" json:"delivery"`
	Seller         string  `bson:"seller" json:"seller"`
	Thumbnail      string  `bson:"thumbnail" json:"thumbnail"`
}

// SearchCache holds one transformed search result payload, keyed by
// normalized query + location. Expired by a TTL index 12 hours after
// CreatedAt.
type SearchCache struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Query     string             `bson:"query" json:"query"`
	Location  string             `bson:"location" json:"location"`
	Results   []ShopResult       `bson:"results" json:"results"`
	CreatedAt primitive.DateTime `bson:"created_at" json:"created_at"`
}

type SellerOffer struct {
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Link     string  `bson:"link" json:"link"`
	Delivery string  `bson:"delivery" json:"delivery"`
	Rating   float64 `bson:"rating" json:"rating"`
	Reviews  int     `bson:"reviews" json:"reviews"`
}

// SellerCache holds the seller offers for one product. A fresh fetch
// overwrites the prior entry and resets the 6 hour TTL clock.
type SellerCache struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID    string             `bson:"product_id" json:"product_id"`
	ProductTitle string             `bson:"product_title" json:"product_title"`
	Sellers      []SellerOffer      `bson:"sellers" json:"sellers"`
	LastFetched  primitive.DateTime `bson:"last_fetched" json:"last_fetched"`
	CreatedAt    primitive.DateTime `bson:"created_at" json:"-"`
}
